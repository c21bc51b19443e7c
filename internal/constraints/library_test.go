package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/scheduler/constraint/builtin"
)

func TestLibrary_CoversRegisteredRules(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	cfg.ExclusiveLabs = true
	cfg.NoBackToBackSameCourse = true
	cfg.MaxClassesPerTeacherPerDay = 4

	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, cfg, nil)

	for _, c := range manager.GetAll() {
		def := GetByName(c.Type())
		require.NotNil(t, def, "规则 %s 缺少说明", c.Type())
		assert.Equal(t, c.Category(), def.Type, c.Type())
		assert.Equal(t, c.Weight(), def.Weight, c.Type())
	}
	assert.Len(t, GetLibrary(), len(manager.GetAll()))
}

func TestForConfig(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	cfg.ExclusiveLabs = false

	lib := ForConfig(cfg, map[string]interface{}{"preference_weight": 75})

	byName := make(map[constraint.Type]ConstraintDefinition, len(lib))
	for _, d := range lib {
		byName[d.Name] = d
	}
	assert.False(t, byName[constraint.TypeLabExclusive].Enabled)
	assert.True(t, byName[constraint.TypeRoomClash].Enabled)
	assert.True(t, byName[constraint.TypeTeacherPreference].Enabled)
	assert.Equal(t, 75, byName[constraint.TypeTeacherPreference].Weight)
}

func TestGetByCategory(t *testing.T) {
	clashes := GetByCategory("冲突检测")
	assert.Len(t, clashes, 4)
	assert.Empty(t, GetByCategory("不存在"))
	assert.Nil(t, GetByName("unknown"))
}
