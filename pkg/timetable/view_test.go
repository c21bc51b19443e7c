package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
)

func TestStructure(t *testing.T) {
	second := createEntry("IT", "EC", "Dr. B", "012", "Monday", "10:30-11:30")
	second.Year = "secondYear"
	entries := []*model.Entry{
		second,
		createEntry("CST", "DE", "Dr. A", "011", "Tuesday", "08:30-09:30"),
		createEntry("CST", "EC", "Dr. B", "011", "Monday", "14:15-15:15"),
		createEntry("CST", "PPS", "Dr. C", "011", "Monday", "09:30-10:30"),
		createEntry("IT", "DE", "Dr. A", "012", "Monday", "09:30-10:30"),
	}
	original := append([]*model.Entry(nil), entries...)

	view := Structure(entries, model.DefaultOrdering())
	require.Len(t, view, 2)
	assert.Equal(t, "firstYear", view[0].Year)
	assert.Equal(t, "First Year", view[0].Label)
	assert.Equal(t, "secondYear", view[1].Year)

	first := view[0]
	require.Len(t, first.Branches, 2)
	cst := first.Branches[0]
	assert.Equal(t, "CST", cst.Branch)
	require.Len(t, cst.Days, 2)
	assert.Equal(t, "Monday", cst.Days[0].Day)
	require.Len(t, cst.Days[0].Entries, 2)
	assert.Equal(t, "PPS", cst.Days[0].Entries[0].Course)
	assert.Equal(t, "EC", cst.Days[0].Entries[1].Course)
	assert.Equal(t, "Tuesday", cst.Days[1].Day)

	assert.Equal(t, original, entries, "输入顺序不变")
	assert.Empty(t, Structure(nil, model.DefaultOrdering()))
}
