package service

import (
	"errors"
	"fmt"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"

	"gorm.io/gorm"
)

const (
	checkinBasePoints   = 5
	checkinStreakBonus  = 1 // 每多连续一天加 1 分
	checkinMaxBonusDays = 5 // 连续加成封顶天数
)

// CheckinService 每日签到与连签奖励，和冒险结算共用同一条积分流水
type CheckinService struct {
	CheckinRepo *repository.CheckinRepository
	UserRepo    *repository.UserRepository
	PointsRepo  *repository.PointsRepository
	Clock       *util.Clock
	DB          *gorm.DB
}

func NewCheckinService(
	checkinRepo *repository.CheckinRepository,
	userRepo *repository.UserRepository,
	pointsRepo *repository.PointsRepository,
	clock *util.Clock,
	db *gorm.DB,
) *CheckinService {
	return &CheckinService{
		CheckinRepo: checkinRepo,
		UserRepo:    userRepo,
		PointsRepo:  pointsRepo,
		Clock:       clock,
		DB:          db,
	}
}

// CheckinResult 签到结果
type CheckinResult struct {
	StreakDays    int `json:"streakDays"`
	PointsAwarded int `json:"pointsAwarded"`
}

// rewardForStreak 连签越久积分越多，有封顶
func rewardForStreak(streak int) int {
	bonus := streak - 1
	if bonus > checkinMaxBonusDays {
		bonus = checkinMaxBonusDays
	}
	return checkinBasePoints + bonus*checkinStreakBonus
}

// Checkin 执行签到：当日已签返回错误；签到记录、积分流水、余额累加同事务提交
func (s *CheckinService) Checkin(userID uint) (*CheckinResult, error) {
	now := s.Clock.Now()
	today := s.Clock.LocalDay(now)
	yesterday := s.Clock.LocalDay(now.AddDate(0, 0, -1))

	if _, err := s.CheckinRepo.FindByUserAndDate(userID, today); err == nil {
		return nil, util.ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	streak := 1
	if latest, err := s.CheckinRepo.FindLatestByUser(userID); err == nil {
		if latest.CheckinDate == yesterday {
			streak = latest.StreakDays + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	points := rewardForStreak(streak)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		checkin := &model.Checkin{
			UserID:      userID,
			CheckinDate: today,
			CheckinAt:   now,
			StreakDays:  streak,
		}
		if err := tx.Create(checkin).Error; err != nil {
			return err
		}

		record := &model.PointsRecord{
			UserID:      userID,
			Delta:       points,
			ChangeType:  model.PointsChangeCheckin,
			Description: fmt.Sprintf("每日签到，连续 %d 天", streak),
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("points", gorm.Expr("points + ?", points)).Error
	})
	if err != nil {
		return nil, err
	}

	return &CheckinResult{StreakDays: streak, PointsAwarded: points}, nil
}

// CheckinStatus 今日是否已签、当前连签天数与累计次数
type CheckinStatus struct {
	CheckedInToday bool  `json:"checkedInToday"`
	StreakDays     int   `json:"streakDays"`
	TotalCheckins  int64 `json:"totalCheckins"`
}

func (s *CheckinService) Status(userID uint) (*CheckinStatus, error) {
	now := s.Clock.Now()
	today := s.Clock.LocalDay(now)
	yesterday := s.Clock.LocalDay(now.AddDate(0, 0, -1))

	status := &CheckinStatus{}

	latest, err := s.CheckinRepo.FindLatestByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status, nil
		}
		return nil, err
	}

	switch latest.CheckinDate {
	case today:
		status.CheckedInToday = true
		status.StreakDays = latest.StreakDays
	case yesterday:
		status.StreakDays = latest.StreakDays
	}

	total, err := s.CheckinRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	status.TotalCheckins = total
	return status, nil
}
