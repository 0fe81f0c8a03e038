package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"
	"petopia_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// GameService 冒险生命周期控制：前置检查、关卡选择、开始/结算/放弃，
// 以及结算时属性变更与奖励入账的原子提交。
type GameService struct {
	AttemptRepo *repository.GameAttemptRepository
	PetRepo     *repository.PetRepository
	UserRepo    *repository.UserRepository
	PointsRepo  *repository.PointsRepository
	CouponRepo  *repository.CouponRepository
	Settings    *SettingService
	Clock       *util.Clock
	DB          *gorm.DB

	// Now 覆盖当前时间来源，测试用；为 nil 时取 Clock.Now
	Now func() time.Time

	startLocks sync.Map // userID -> *sync.Mutex
}

func NewGameService(
	attemptRepo *repository.GameAttemptRepository,
	petRepo *repository.PetRepository,
	userRepo *repository.UserRepository,
	pointsRepo *repository.PointsRepository,
	couponRepo *repository.CouponRepository,
	settings *SettingService,
	clock *util.Clock,
	db *gorm.DB,
) *GameService {
	return &GameService{
		AttemptRepo: attemptRepo,
		PetRepo:     petRepo,
		UserRepo:    userRepo,
		PointsRepo:  pointsRepo,
		CouponRepo:  couponRepo,
		Settings:    settings,
		Clock:       clock,
		DB:          db,
	}
}

func (s *GameService) timeNow() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return s.Clock.Now()
}

// userLock 开始路径按用户串行化：计数与插入之间不允许并发穿插，
// 否则两个并发请求都能通过次数检查
func (s *GameService) userLock(userID uint) *sync.Mutex {
	v, _ := s.startLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// CountAttemptsStartedToday 统计用户今天（本地日）已开始的冒险次数
func (s *GameService) CountAttemptsStartedToday(userID uint) (int64, error) {
	start, end := s.Clock.DayRange(s.timeNow())
	return s.AttemptRepo.CountStartedBetween(userID, start, end)
}

// IsUnderDailyLimit 判断用户是否还有今日剩余次数
func (s *GameService) IsUnderDailyLimit(userID uint) (bool, error) {
	rules := s.Settings.EffectiveGameRules()
	count, err := s.CountAttemptsStartedToday(userID)
	if err != nil {
		return false, err
	}
	return count < int64(rules.DailyAttemptLimit), nil
}

// SelectLevel 决定下一次冒险的关卡：无已结束记录从 1 开始，
// 胜升一级（封顶 3），负保持不变。放弃的记录不参与。
func (s *GameService) SelectLevel(userID, petID uint) (int, error) {
	return selectLevel(s.DB, userID, petID)
}

func selectLevel(db *gorm.DB, userID, petID uint) (int, error) {
	last, err := repository.NewGameAttemptRepository(db).FindLatestEnded(userID, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MinAdventureLevel, nil
		}
		return 0, err
	}
	if last.Result == model.AttemptWin && last.Level < MaxAdventureLevel {
		return last.Level + 1, nil
	}
	return last.Level, nil
}

// StartAttemptResult 开始冒险的返回值
type StartAttemptResult struct {
	AttemptID       uint    `json:"attemptId"`
	Level           int     `json:"level"`
	MonsterCount    int     `json:"monsterCount"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
	RemainingToday  int     `json:"remainingToday"`
}

// StartAttempt 开始一次冒险：次数检查、健康门槛、关卡选择、建档。
// 次数检查与插入在同一事务内，并按用户加锁防止并发超额。
func (s *GameService) StartAttempt(userID, petID uint) (*StartAttemptResult, error) {
	rules := s.Settings.EffectiveGameRules()

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	var result *StartAttemptResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		attemptRepo := repository.NewGameAttemptRepository(tx)

		now := s.timeNow()
		dayStart, dayEnd := s.Clock.DayRange(now)

		count, err := attemptRepo.CountStartedBetween(userID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if count >= int64(rules.DailyAttemptLimit) {
			return util.ErrDailyAttemptLimit
		}

		// 健康门槛：宠物不存在或归属不符同样拒绝
		pet, err := repository.NewPetRepository(tx).FindByID(petID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrPetNotFound
			}
			return err
		}
		if pet.UserID != userID {
			return util.ErrPetNotFound
		}
		if attr := pet.BlockingAttribute(); attr != "" {
			return &util.PetUnfitError{Attribute: attr}
		}

		level, err := selectLevel(tx, userID, petID)
		if err != nil {
			return err
		}
		difficulty, ok := DifficultyForLevel(level)
		if !ok {
			return fmt.Errorf("no difficulty configured for level %d", level)
		}

		attempt := &model.GameAttempt{
			UserID:          userID,
			PetID:           petID,
			Level:           level,
			MonsterCount:    difficulty.MonsterCount,
			SpeedMultiplier: difficulty.SpeedMultiplier,
			Result:          model.AttemptInProgress,
			StartedAt:       now,
		}
		if err := attemptRepo.Create(attempt); err != nil {
			return err
		}

		result = &StartAttemptResult{
			AttemptID:       attempt.ID,
			Level:           level,
			MonsterCount:    difficulty.MonsterCount,
			SpeedMultiplier: difficulty.SpeedMultiplier,
			RemainingToday:  rules.DailyAttemptLimit - int(count) - 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.GameAttemptCounter.WithLabelValues("started").Inc()
	return result, nil
}

// claimTerminal 把冒险记录从进行中置为终态。条件更新带 ended_at IS NULL 守卫：
// 并发结算在 MySQL 的可重复读下都能通过快照读的终态检查，
// 只有第一个拿到行锁的提交者能改到行，后到者 RowsAffected 为 0。
func claimTerminal(tx *gorm.DB, attemptID uint, updates map[string]interface{}) error {
	res := tx.Model(&model.GameAttempt{}).
		Where("id = ? AND ended_at IS NULL", attemptID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrAttemptEnded
	}
	return nil
}

// EndAttempt 结算一次冒险。终态写入、宠物属性变更、积分流水、余额累加、
// 发券在同一事务内提交，任一步失败全部回滚。
// override 非空时直接采用调用方给定的奖励值，否则按规则快照计算。
func (s *GameService) EndAttempt(userID, attemptID uint, isWin bool, override *RewardGrant) (*model.GameAttempt, error) {
	rules := s.Settings.EffectiveGameRules()

	var ended *model.GameAttempt
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		attempt, err := repository.NewGameAttemptRepository(tx).FindByID(attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		if attempt.UserID != userID {
			return util.ErrAttemptNotFound
		}
		if attempt.Ended() {
			return util.ErrAttemptEnded
		}

		grant := rules.Rewards.GrantFor(attempt.Level, isWin)
		if override != nil {
			grant = *override
		}

		result := model.AttemptLose
		if isWin {
			result = model.AttemptWin
		}
		now := s.timeNow()

		// 先抢占终态再做任何变更，确保同一次冒险只被结算一次
		if err := claimTerminal(tx, attempt.ID, map[string]interface{}{
			"result":             result,
			"ended_at":           now,
			"points_awarded":     grant.Points,
			"experience_awarded": grant.Experience,
		}); err != nil {
			return err
		}

		// 属性结算先于奖励入账；宠物已不存在则整体失败，不发任何奖励
		petRepo := repository.NewPetRepository(tx)
		pet, err := petRepo.FindByID(attempt.PetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrPetNotFound
			}
			return err
		}
		pet.ApplyAdventureOutcome(isWin)
		if grant.Experience > 0 {
			// 经验只累加，宠物自身的升级结算由喂养线独立处理
			pet.Experience += grant.Experience
		}
		if err := petRepo.Update(pet); err != nil {
			return err
		}

		pointsRepo := repository.NewPointsRepository(tx)
		if grant.Points > 0 {
			record := &model.PointsRecord{
				UserID:      attempt.UserID,
				Delta:       grant.Points,
				ChangeType:  model.PointsChangeGameReward,
				Description: fmt.Sprintf("冒险结算：第 %d 关 %s", attempt.Level, result),
			}
			if err := pointsRepo.Append(record); err != nil {
				return err
			}
			if err := repository.NewUserRepository(tx).AddPoints(attempt.UserID, grant.Points); err != nil {
				return err
			}
		}

		if isWin && grant.CouponType != "" {
			code := model.GenerateUUID()
			coupon := &model.Coupon{
				UserID:     attempt.UserID,
				Code:       code,
				TypeCode:   grant.CouponType,
				AcquiredAt: now,
			}
			if err := repository.NewCouponRepository(tx).Create(coupon); err != nil {
				return err
			}
			if err := tx.Model(&model.GameAttempt{}).
				Where("id = ?", attempt.ID).
				Update("coupon_code", code).Error; err != nil {
				return err
			}
			attempt.CouponCode = &code

			grantRecord := &model.PointsRecord{
				UserID:      attempt.UserID,
				Delta:       0,
				ChangeType:  model.PointsChangeCouponGrant,
				Description: fmt.Sprintf("冒险奖励发券：%s", grant.CouponType),
			}
			if err := pointsRepo.Append(grantRecord); err != nil {
				return err
			}
		}

		attempt.Result = result
		attempt.EndedAt = &now
		attempt.PointsAwarded = grant.Points
		attempt.ExperienceAwarded = grant.Experience
		ended = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.GameAttemptCounter.WithLabelValues(ended.Result).Inc()
	return ended, nil
}

// AbortAttempt 放弃冒险：只写终态，不动属性不发奖励
func (s *GameService) AbortAttempt(userID, attemptID uint) (*model.GameAttempt, error) {
	var aborted *model.GameAttempt
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		attempt, err := repository.NewGameAttemptRepository(tx).FindByID(attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		if attempt.UserID != userID {
			return util.ErrAttemptNotFound
		}
		if attempt.Ended() {
			return util.ErrAttemptEnded
		}

		now := s.timeNow()
		if err := claimTerminal(tx, attempt.ID, map[string]interface{}{
			"result":   model.AttemptAbort,
			"ended_at": now,
		}); err != nil {
			return err
		}

		attempt.Result = model.AttemptAbort
		attempt.EndedAt = &now
		aborted = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.GameAttemptCounter.WithLabelValues(model.AttemptAbort).Inc()
	return aborted, nil
}

// TodayQuota 今日冒险次数概览
type TodayQuota struct {
	Limit     int   `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int   `json:"remaining"`
}

func (s *GameService) TodayQuota(userID uint) (*TodayQuota, error) {
	rules := s.Settings.EffectiveGameRules()
	used, err := s.CountAttemptsStartedToday(userID)
	if err != nil {
		return nil, err
	}
	remaining := rules.DailyAttemptLimit - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return &TodayQuota{Limit: rules.DailyAttemptLimit, Used: used, Remaining: remaining}, nil
}
