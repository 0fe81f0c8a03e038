package model

import "time"

// Checkin 记录用户的每日签到信息
// swagger:model Checkin
type Checkin struct {
	BaseModel
	UserID      uint      `gorm:"index:idx_user_checkin_date,unique;not null"`
	CheckinDate string    `gorm:"size:10;index:idx_user_checkin_date,unique;not null"` // 本地日 2006-01-02
	CheckinAt   time.Time `gorm:"not null"`
	StreakDays  int       `gorm:"default:1"` // 连续签到天数
}

func (Checkin) TableName() string {
	return "checkins"
}
