package service

import (
	"errors"
	"time"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"

	"gorm.io/gorm"
)

// CouponService 券的查询与核销。发放只走冒险结算事务，这里不提供。
type CouponService struct {
	CouponRepo *repository.CouponRepository
}

func NewCouponService(couponRepo *repository.CouponRepository) *CouponService {
	return &CouponService{CouponRepo: couponRepo}
}

func (s *CouponService) ListMine(userID uint) ([]model.Coupon, error) {
	return s.CouponRepo.ListByUser(userID)
}

func (s *CouponService) ListTypes() ([]model.CouponType, error) {
	return s.CouponRepo.ListTypes()
}

// UseCoupon 核销一张券，已核销的再次核销报错
func (s *CouponService) UseCoupon(userID, couponID uint) (*model.Coupon, error) {
	coupon, err := s.CouponRepo.FindByID(couponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCouponNotFound
		}
		return nil, err
	}
	if coupon.UserID != userID {
		return nil, util.ErrCouponNotFound
	}
	if coupon.IsUsed {
		return nil, util.ErrCouponAlreadyUsed
	}

	now := time.Now()
	coupon.IsUsed = true
	coupon.UsedAt = &now
	if err := s.CouponRepo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}
