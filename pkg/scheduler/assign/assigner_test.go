package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
)

func TestQualificationAssigner_AssignTeacher(t *testing.T) {
	teachers := []*model.Teacher{
		{Name: "Mr. X", Subjects: []model.Subject{{Course: "EC", Type: model.SessionLecture}}},
		{Name: "Dr. A", Subjects: []model.Subject{{Course: "DE", Type: model.SessionLecture, TeachesTo: []string{"CST"}}}},
		{Name: "Dr. B", Subjects: []model.Subject{{Course: "DE", Type: model.SessionLecture}}},
	}
	a := NewQualificationAssigner()

	got, ok := a.AssignTeacher(Request{Course: "DE", Type: model.SessionLecture, Branch: "CST"}, teachers)
	require.True(t, ok)
	assert.Equal(t, "Dr. A", got.Name)

	got, ok = a.AssignTeacher(Request{Course: "DE", Type: model.SessionLecture, Branch: "IT"}, teachers)
	require.True(t, ok)
	assert.Equal(t, "Dr. B", got.Name)

	_, ok = a.AssignTeacher(Request{Course: "PPS", Type: model.SessionLab, Branch: "IT"}, teachers)
	assert.False(t, ok)

	_, ok = a.AssignTeacher(Request{Course: "DE", Type: model.SessionLecture, Branch: "IT"}, nil)
	assert.False(t, ok)
}

func TestQualificationAssigner_AssignRoom(t *testing.T) {
	rooms := []*model.Room{{Name: "011"}, {Name: "012"}}
	labs := []*model.Room{{Name: "IoT Lab", Lab: true}}
	a := NewQualificationAssigner()

	room, ok := a.AssignRoom(model.SessionLab, rooms, labs)
	require.True(t, ok)
	assert.Equal(t, "IoT Lab", room.Name)

	room, ok = a.AssignRoom(model.SessionCombined, rooms, labs)
	require.True(t, ok)
	assert.Equal(t, "011", room.Name)

	_, ok = a.AssignRoom(model.SessionLab, rooms, nil)
	assert.False(t, ok)
}
