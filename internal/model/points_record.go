package model

// 积分变动类型
const (
	PointsChangeGameReward  = "game_reward"
	PointsChangeCouponGrant = "coupon_grant"
	PointsChangeCheckin     = "checkin_reward"
)

// PointsRecord 积分流水，只追加，不更新不删除
// swagger:model PointsRecord
type PointsRecord struct {
	BaseModel
	UserID      uint   `gorm:"index;not null" json:"userId"`
	Delta       int    `gorm:"not null" json:"delta"`
	ChangeType  string `gorm:"size:30;index;not null" json:"changeType"`
	Description string `gorm:"size:255" json:"description"`
}

func (PointsRecord) TableName() string {
	return "points_records"
}
