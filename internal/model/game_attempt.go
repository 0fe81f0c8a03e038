package model

import "time"

// 冒险结果
const (
	AttemptInProgress = "in_progress"
	AttemptWin        = "win"
	AttemptLose       = "lose"
	AttemptAbort      = "abort"
)

// GameAttempt 一次小游戏冒险记录。难度参数在创建时按关卡固化，之后不再变化。
// swagger:model GameAttempt
type GameAttempt struct {
	BaseModel

	UserID            uint       `gorm:"index;not null" json:"userId"`
	PetID             uint       `gorm:"index;not null" json:"petId"`
	Level             int        `gorm:"not null" json:"level"`
	MonsterCount      int        `gorm:"not null" json:"monsterCount"`
	SpeedMultiplier   float64    `gorm:"not null" json:"speedMultiplier"`
	Result            string     `gorm:"size:20;default:'in_progress';index" json:"result"`
	PointsAwarded     int        `gorm:"default:0" json:"pointsAwarded"`
	ExperienceAwarded int        `gorm:"default:0" json:"experienceAwarded"`
	CouponCode        *string    `gorm:"size:64" json:"couponCode,omitempty"`
	StartedAt         time.Time  `gorm:"index;not null" json:"startedAt"`
	EndedAt           *time.Time `gorm:"index" json:"endedAt,omitempty"`
}

func (GameAttempt) TableName() string {
	return "game_attempts"
}

// Ended 终态判定，终态后记录不可再变更
func (a *GameAttempt) Ended() bool {
	return a.EndedAt != nil
}
