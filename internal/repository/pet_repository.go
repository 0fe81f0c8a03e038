package repository

import (
	"petopia_backend/internal/model"

	"gorm.io/gorm"
)

type PetRepository struct {
	DB *gorm.DB
}

func NewPetRepository(db *gorm.DB) *PetRepository {
	return &PetRepository{DB: db}
}

func (r *PetRepository) Create(pet *model.Pet) error {
	return r.DB.Create(pet).Error
}

func (r *PetRepository) FindByID(id uint) (*model.Pet, error) {
	var pet model.Pet
	if err := r.DB.First(&pet, id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *PetRepository) FindByUser(userID uint) (*model.Pet, error) {
	var pet model.Pet
	if err := r.DB.Where("user_id = ?", userID).First(&pet).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *PetRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Pet{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PetRepository) Update(pet *model.Pet) error {
	return r.DB.Save(pet).Error
}
