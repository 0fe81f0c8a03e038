package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPetNotFound        = errors.New("pet not found")
	ErrPetAlreadyAdopted  = errors.New("user already has a pet")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptEnded       = errors.New("attempt already ended")
	ErrDailyAttemptLimit  = errors.New("daily adventure limit reached")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponAlreadyUsed  = errors.New("coupon already used")
	ErrAlreadyCheckedIn   = errors.New("already checked in today")
	ErrInvalidAvatarImage = errors.New("avatar must be an image file")
)

// PetUnfitError 健康门槛拦截，Attribute 为第一个为 0 的属性名
type PetUnfitError struct {
	Attribute string
}

func (e *PetUnfitError) Error() string {
	return "pet is not fit for adventure: " + e.Attribute
}
