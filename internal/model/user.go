package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"Name"`
	Email     string    `gorm:"size:100;unique;not null" json:"Email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Points    int       `gorm:"default:0" json:"Points"` // 积分余额（由积分流水原子累加）
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"Disabled"`
	LastLogin time.Time `json:"LastLogin"`
	LastSeen  time.Time `json:"LastSeen"`
}

func (User) TableName() string {
	return "users"
}
