package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"

	"gorm.io/gorm"
)

// 照料动作的属性变化量
const (
	feedHungerGain       = 30
	playMoodGain         = 20
	playStaminaCost      = 10
	cleanCleanlinessGain = 40
	restStaminaGain      = 40
)

// PetService 宠物档案与照料动作，以及冒险前的健康门槛检查
type PetService struct {
	PetRepo *repository.PetRepository
	Storage *StorageService
}

func NewPetService(petRepo *repository.PetRepository, storage *StorageService) *PetService {
	return &PetService{PetRepo: petRepo, Storage: storage}
}

// AdoptPet 领养宠物，每个用户只能有一只
func (s *PetService) AdoptPet(userID uint, name string) (*model.Pet, error) {
	count, err := s.PetRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, util.ErrPetAlreadyAdopted
	}

	pet := &model.Pet{
		UserID:      userID,
		Name:        name,
		Level:       1,
		Hunger:      model.AttributeMax,
		Mood:        model.AttributeMax,
		Stamina:     model.AttributeMax,
		Cleanliness: model.AttributeMax,
		Health:      model.AttributeMax,
	}
	if err := s.PetRepo.Create(pet); err != nil {
		return nil, err
	}
	return pet, nil
}

func (s *PetService) GetMyPet(userID uint) (*model.Pet, error) {
	pet, err := s.PetRepo.FindByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPetNotFound
		}
		return nil, err
	}
	return pet, nil
}

// findOwnedPet 按 ID 取宠物并校验归属
func (s *PetService) findOwnedPet(userID, petID uint) (*model.Pet, error) {
	pet, err := s.PetRepo.FindByID(petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPetNotFound
		}
		return nil, err
	}
	if pet.UserID != userID {
		return nil, util.ErrPetNotFound
	}
	return pet, nil
}

// CanStartAdventure 冒险健康门槛。宠物不存在按不允许处理；
// 否则返回第一个为 0 的属性作为拦截原因。
func (s *PetService) CanStartAdventure(petID uint) (bool, string, error) {
	pet, err := s.PetRepo.FindByID(petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "", util.ErrPetNotFound
		}
		return false, "", err
	}
	if attr := pet.BlockingAttribute(); attr != "" {
		return false, attr, nil
	}
	return true, "", nil
}

func (s *PetService) applyCare(userID, petID uint, hunger, mood, stamina, cleanliness int) (*model.Pet, error) {
	pet, err := s.findOwnedPet(userID, petID)
	if err != nil {
		return nil, err
	}
	pet.ApplyCare(hunger, mood, stamina, cleanliness)
	if err := s.PetRepo.Update(pet); err != nil {
		return nil, err
	}
	return pet, nil
}

// FeedPet 喂食
func (s *PetService) FeedPet(userID, petID uint) (*model.Pet, error) {
	return s.applyCare(userID, petID, feedHungerGain, 0, 0, 0)
}

// PlayWithPet 陪玩，消耗少量体力换心情
func (s *PetService) PlayWithPet(userID, petID uint) (*model.Pet, error) {
	return s.applyCare(userID, petID, 0, playMoodGain, -playStaminaCost, 0)
}

// CleanPet 清洁
func (s *PetService) CleanPet(userID, petID uint) (*model.Pet, error) {
	return s.applyCare(userID, petID, 0, 0, 0, cleanCleanlinessGain)
}

// RestPet 休息回体力
func (s *PetService) RestPet(userID, petID uint) (*model.Pet, error) {
	return s.applyCare(userID, petID, 0, 0, restStaminaGain, 0)
}

// UpdateAvatar 上传宠物头像，仅允许图片
func (s *PetService) UpdateAvatar(ctx context.Context, userID, petID uint, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	pet, err := s.findOwnedPet(userID, petID)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(contentType, util.MimeImage) {
		return "", util.ErrInvalidAvatarImage
	}
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range util.AllowedAvatarExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", util.ErrInvalidAvatarImage
	}

	objectName := fmt.Sprintf("pet-avatars/%d%s", pet.ID, ext)
	url, err := s.Storage.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return "", err
	}

	pet.Avatar = url
	if err := s.PetRepo.Update(pet); err != nil {
		return "", err
	}
	return url, nil
}
