package fitness

import "github.com/paiban/kebiao/pkg/model"

// Weights 违反项权重与得分系数
type Weights struct {
	// 硬约束
	TeacherClash    float64 `json:"teacher_clash" mapstructure:"teacher_clash"`
	RoomClash       float64 `json:"room_clash" mapstructure:"room_clash"`
	BatchClash      float64 `json:"batch_clash" mapstructure:"batch_clash"`
	LabDuration     float64 `json:"lab_duration" mapstructure:"lab_duration"`
	BackToBack      float64 `json:"back_to_back" mapstructure:"back_to_back"`
	TeacherOverload float64 `json:"teacher_overload" mapstructure:"teacher_overload"`

	// 软约束
	TeacherGap float64 `json:"teacher_gap" mapstructure:"teacher_gap"`
	BatchGap   float64 `json:"batch_gap" mapstructure:"batch_gap"`
	Late       float64 `json:"late" mapstructure:"late"`
	Uneven     float64 `json:"uneven" mapstructure:"uneven"`
	RoomChange float64 `json:"room_change" mapstructure:"room_change"`
	Preference float64 `json:"preference" mapstructure:"preference"`

	// LateFrom 开始时间不早于该时刻的课计为下午晚课
	LateFrom model.Clock `json:"late_from" mapstructure:"late_from"`

	HardFactor float64 `json:"hard_factor" mapstructure:"hard_factor"` // k1
	SoftFactor float64 `json:"soft_factor" mapstructure:"soft_factor"` // k2
	HardShare  float64 `json:"hard_share" mapstructure:"hard_share"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{
		TeacherClash:    1.0,
		RoomClash:       0.8,
		BatchClash:      0.8,
		LabDuration:     0.6,
		BackToBack:      0.4,
		TeacherOverload: 0.4,

		TeacherGap: 0.05,
		BatchGap:   0.08,
		Late:       0.03,
		Uneven:     0.05,
		RoomChange: 0.04,
		Preference: 0.05,

		LateFrom: model.NewClock(15, 0),

		HardFactor: 0.1,
		SoftFactor: 0.01,
		HardShare:  0.8,
	}
}
