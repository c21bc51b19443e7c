package builtin

import (
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// RegisterDefaultConstraints 按排课规则注册默认规则到管理器。
// overrides 可调整软约束参数：preference_weight、workload_balance_weight、
// workload_tolerance_percent、late_from
func RegisterDefaultConstraints(manager *constraint.Manager, cfg *model.ConstraintConfig, overrides map[string]interface{}) {
	if cfg == nil {
		cfg = model.DefaultConstraintConfig()
	}

	preferenceWeight := getConfigInt(overrides, "preference_weight", 50)
	balanceWeight := getConfigInt(overrides, "workload_balance_weight", 40)
	tolerancePercent := getConfigFloat(overrides, "workload_tolerance_percent", 30.0)
	lateFrom := model.NewClock(15, 0)
	if s := getConfigString(overrides, "late_from", ""); s != "" {
		if c, err := model.ParseClock(s); err == nil {
			lateFrom = c
		}
	}

	// 注册硬约束
	manager.Register(NewTeacherClashConstraint())
	manager.Register(NewRoomClashConstraint())
	manager.Register(NewBatchClashConstraint())
	manager.Register(NewWorkingHoursConstraint(cfg))
	manager.Register(NewLunchBreakConstraint(cfg.Lunch()))
	manager.Register(NewQualificationConstraint())
	manager.Register(NewWeeklyCountConstraint(cfg.SessionRules))
	manager.Register(NewSessionDurationConstraint(cfg.SessionRules))
	if cfg.MaxClassesPerTeacherPerDay > 0 {
		manager.Register(NewTeacherDailyLoadConstraint(cfg.MaxClassesPerTeacherPerDay))
	}
	if cfg.NoBackToBackSameCourse {
		manager.Register(NewNoBackToBackConstraint())
	}
	if cfg.ExclusiveLabs {
		manager.Register(NewLabExclusiveConstraint())
	}

	// 注册软约束
	manager.Register(NewTeacherPreferenceConstraint(preferenceWeight))
	manager.Register(NewWorkloadBalanceConstraint(balanceWeight, tolerancePercent, lateFrom))
}

// getConfigString 从配置中获取字符串
func getConfigString(config map[string]interface{}, key string, defaultVal string) string {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key].(string); ok {
		return val
	}
	return defaultVal
}

// getConfigInt 从配置中获取整数
func getConfigInt(config map[string]interface{}, key string, defaultVal int) int {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultVal
}

// getConfigFloat 从配置中获取浮点数
func getConfigFloat(config map[string]interface{}, key string, defaultVal float64) float64 {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultVal
}
