package model

// Setting 管理端可调的键值配置（每日次数上限、奖励表等）
// swagger:model Setting
type Setting struct {
	BaseModel
	Key   string `gorm:"size:100;unique;not null" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

func (Setting) TableName() string {
	return "settings"
}

// 配置键
const (
	SettingDailyAttemptLimit = "game.daily_attempt_limit"
	SettingGameRewardPolicy  = "game.reward_policy"
)
