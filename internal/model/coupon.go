package model

import "time"

// Coupon 用户持有的兑换券，Code 为发放时生成的兑换码
// swagger:model Coupon
type Coupon struct {
	BaseModel
	UserID     uint       `gorm:"index;not null" json:"userId"`
	Code       string     `gorm:"size:64;unique;not null" json:"code"`
	TypeCode   string     `gorm:"size:50;index;not null" json:"typeCode"`
	AcquiredAt time.Time  `gorm:"not null" json:"acquiredAt"`
	IsUsed     bool       `gorm:"default:false" json:"isUsed"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// CouponType 券种目录。发放路径不校验券种存在性（上游已校验），目录仅用于展示。
// swagger:model CouponType
type CouponType struct {
	BaseModel
	Code        string `gorm:"size:50;unique;not null" json:"code"`
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:255" json:"description"`
	Enabled     bool   `gorm:"default:true" json:"enabled"`
}

func (CouponType) TableName() string {
	return "coupon_types"
}
