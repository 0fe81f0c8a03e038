package repository

import (
	"time"

	"petopia_backend/internal/model"

	"gorm.io/gorm"
)

type GameAttemptRepository struct {
	DB *gorm.DB
}

func NewGameAttemptRepository(db *gorm.DB) *GameAttemptRepository {
	return &GameAttemptRepository{DB: db}
}

func (r *GameAttemptRepository) Create(attempt *model.GameAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *GameAttemptRepository) FindByID(id uint) (*model.GameAttempt, error) {
	var a model.GameAttempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CountStartedBetween 统计用户在 [start, end) 内开始的冒险次数，
// 区间边界由调用方按本地日计算
func (r *GameAttemptRepository) CountStartedBetween(userID uint, start, end time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.GameAttempt{}).
		Where("user_id = ? AND started_at >= ? AND started_at < ?", userID, start, end).
		Count(&count).Error
	return count, err
}

// FindLatestEnded 查找该宠物最近一次已结束且非放弃的冒险，
// 按 ended_at 倒序。放弃与进行中的记录不参与关卡推进。
func (r *GameAttemptRepository) FindLatestEnded(userID, petID uint) (*model.GameAttempt, error) {
	var a model.GameAttempt
	err := r.DB.
		Where("user_id = ? AND pet_id = ? AND result IN ?", userID, petID, []string{model.AttemptWin, model.AttemptLose}).
		Order("ended_at DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GameAttemptRepository) ListByUser(userID uint, page, limit int) ([]model.GameAttempt, int64, error) {
	var attempts []model.GameAttempt
	var total int64

	query := r.DB.Model(&model.GameAttempt{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("started_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}
