package repository

import (
	"petopia_backend/internal/model"

	"gorm.io/gorm"
)

// PointsRepository 积分流水仓库。流水只追加，更新与删除不提供。
type PointsRepository struct {
	DB *gorm.DB
}

func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{DB: db}
}

func (r *PointsRepository) Append(record *model.PointsRecord) error {
	return r.DB.Create(record).Error
}

func (r *PointsRepository) ListByUser(userID uint, page, limit int) ([]model.PointsRecord, int64, error) {
	var records []model.PointsRecord
	var total int64

	query := r.DB.Model(&model.PointsRecord{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error
	return records, total, err
}

func (r *PointsRepository) SumByUser(userID uint) (int64, error) {
	var sum int64
	err := r.DB.Model(&model.PointsRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	return sum, err
}
