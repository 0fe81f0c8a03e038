package repository

import (
	"petopia_backend/internal/model"

	"gorm.io/gorm"
)

type CouponRepository struct {
	DB *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{DB: db}
}

func (r *CouponRepository) Create(coupon *model.Coupon) error {
	return r.DB.Create(coupon).Error
}

func (r *CouponRepository) FindByID(id uint) (*model.Coupon, error) {
	var c model.Coupon
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CouponRepository) ListByUser(userID uint) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.DB.Where("user_id = ?", userID).Order("acquired_at DESC").Find(&coupons).Error
	return coupons, err
}

func (r *CouponRepository) Update(coupon *model.Coupon) error {
	return r.DB.Save(coupon).Error
}

func (r *CouponRepository) ListTypes() ([]model.CouponType, error) {
	var types []model.CouponType
	err := r.DB.Where("enabled = ?", true).Find(&types).Error
	return types, err
}
