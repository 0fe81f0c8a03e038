package service

import (
	"errors"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"

	"gorm.io/gorm"
)

// PointsService 积分余额与流水查询。余额写入只发生在各结算事务内。
type PointsService struct {
	UserRepo   *repository.UserRepository
	PointsRepo *repository.PointsRepository
}

func NewPointsService(userRepo *repository.UserRepository, pointsRepo *repository.PointsRepository) *PointsService {
	return &PointsService{UserRepo: userRepo, PointsRepo: pointsRepo}
}

// PointsSummary 余额与流水汇总。LedgerTotal 由流水求和得出，
// 与余额不一致说明出现过非事务写入。
type PointsSummary struct {
	Balance     int   `json:"balance"`
	LedgerTotal int64 `json:"ledgerTotal"`
}

func (s *PointsService) GetSummary(userID uint) (*PointsSummary, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	total, err := s.PointsRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}
	return &PointsSummary{Balance: user.Points, LedgerTotal: total}, nil
}

func (s *PointsService) GetLedger(userID uint, page, limit int) ([]model.PointsRecord, int64, error) {
	return s.PointsRepo.ListByUser(userID, page, limit)
}
