package repository

import (
	"petopia_backend/internal/model"

	"gorm.io/gorm"
)

type SettingRepository struct {
	DB *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{DB: db}
}

func (r *SettingRepository) Get(key string) (*model.Setting, error) {
	var s model.Setting
	if err := r.DB.Where("`key` = ?", key).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingRepository) Upsert(key, value string) error {
	var existing model.Setting
	err := r.DB.Where("`key` = ?", key).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return r.DB.Create(&model.Setting{Key: key, Value: value}).Error
	}
	existing.Value = value
	return r.DB.Save(&existing).Error
}
