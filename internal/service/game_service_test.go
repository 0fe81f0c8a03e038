package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"
	"petopia_backend/pkg/database"
	"petopia_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	// 每个测试独立的共享内存库，避免连接池拿到不同的 :memory: 实例
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type gameTestEnv struct {
	db   *gorm.DB
	game *GameService
	user *model.User
	pet  *model.Pet
}

func newGameTestEnv(t *testing.T) *gameTestEnv {
	t.Helper()
	db := newTestDB(t)

	clock, err := util.NewClock("UTC")
	require.NoError(t, err)

	settings := NewSettingService(repository.NewSettingRepository(db), nil, nil)
	game := NewGameService(
		repository.NewGameAttemptRepository(db),
		repository.NewPetRepository(db),
		repository.NewUserRepository(db),
		repository.NewPointsRepository(db),
		repository.NewCouponRepository(db),
		settings,
		clock,
		db,
	)

	user := &model.User{Name: "tester", Email: "tester@example.com", Password: "hashed"}
	require.NoError(t, db.Create(user).Error)

	pet := &model.Pet{
		UserID: user.ID, Name: "Momo", Level: 1,
		Hunger: 100, Mood: 100, Stamina: 100, Cleanliness: 100, Health: 100,
	}
	require.NoError(t, db.Create(pet).Error)

	return &gameTestEnv{db: db, game: game, user: user, pet: pet}
}

func (e *gameTestEnv) reloadPet(t *testing.T) *model.Pet {
	t.Helper()
	var pet model.Pet
	require.NoError(t, e.db.First(&pet, e.pet.ID).Error)
	return &pet
}

func (e *gameTestEnv) reloadUser(t *testing.T) *model.User {
	t.Helper()
	var user model.User
	require.NoError(t, e.db.First(&user, e.user.ID).Error)
	return &user
}

func TestStartAttemptFirstAdventure(t *testing.T) {
	env := newGameTestEnv(t)

	result, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Level)
	assert.Equal(t, 6, result.MonsterCount)
	assert.Equal(t, 1.0, result.SpeedMultiplier)
	assert.Equal(t, 2, result.RemainingToday)

	var attempt model.GameAttempt
	require.NoError(t, env.db.First(&attempt, result.AttemptID).Error)
	assert.Equal(t, model.AttemptInProgress, attempt.Result)
	assert.Equal(t, env.pet.ID, attempt.PetID)
}

func TestStartAttemptDailyLimit(t *testing.T) {
	env := newGameTestEnv(t)

	for i := 0; i < 3; i++ {
		_, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
		require.NoError(t, err)
	}

	_, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	assert.ErrorIs(t, err, util.ErrDailyAttemptLimit)

	quota, err := env.game.TodayQuota(env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), quota.Used)
	assert.Equal(t, 0, quota.Remaining)
}

func TestStartAttemptLimitCountsAbortsAndLosses(t *testing.T) {
	env := newGameTestEnv(t)

	r1, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	_, err = env.game.AbortAttempt(env.user.ID, r1.AttemptID)
	require.NoError(t, err)

	r2, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	_, err = env.game.EndAttempt(env.user.ID, r2.AttemptID, false, nil)
	require.NoError(t, err)

	_, err = env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	// 放弃和失败的场次同样占用当日额度
	_, err = env.game.StartAttempt(env.user.ID, env.pet.ID)
	assert.ErrorIs(t, err, util.ErrDailyAttemptLimit)
}

func TestStartAttemptQuotaResetsNextDay(t *testing.T) {
	env := newGameTestEnv(t)

	base := time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC)
	env.game.Now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		_, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
		require.NoError(t, err)
	}
	_, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	assert.ErrorIs(t, err, util.ErrDailyAttemptLimit)

	// 跨过本地日边界后额度重置
	env.game.Now = func() time.Time { return base.Add(3 * time.Hour) }
	_, err = env.game.StartAttempt(env.user.ID, env.pet.ID)
	assert.NoError(t, err)
}

func TestStartAttemptCustomLimitFromSettings(t *testing.T) {
	env := newGameTestEnv(t)

	limit := 1
	require.NoError(t, env.game.Settings.UpdateGameRules(&limit, nil))

	_, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	_, err = env.game.StartAttempt(env.user.ID, env.pet.ID)
	assert.ErrorIs(t, err, util.ErrDailyAttemptLimit)
}

func TestStartAttemptHealthGate(t *testing.T) {
	env := newGameTestEnv(t)

	require.NoError(t, env.db.Model(env.pet).Updates(map[string]interface{}{"mood": 0, "stamina": 0}).Error)

	_, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	var unfit *util.PetUnfitError
	require.ErrorAs(t, err, &unfit)
	assert.Equal(t, model.AttrMood, unfit.Attribute)

	// 被拦截的请求不占用当日额度
	quota, err := env.game.TodayQuota(env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), quota.Used)
}

func TestStartAttemptRejectsForeignPet(t *testing.T) {
	env := newGameTestEnv(t)

	other := &model.User{Name: "other", Email: "other@example.com", Password: "hashed"}
	require.NoError(t, env.db.Create(other).Error)

	_, err := env.game.StartAttempt(other.ID, env.pet.ID)
	assert.ErrorIs(t, err, util.ErrPetNotFound)
}

func TestLevelProgression(t *testing.T) {
	env := newGameTestEnv(t)

	limit := 10
	require.NoError(t, env.game.Settings.UpdateGameRules(&limit, nil))

	// 第一次从 1 开始，胜则升级
	r1, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, r1.Level)
	_, err = env.game.EndAttempt(env.user.ID, r1.AttemptID, true, nil)
	require.NoError(t, err)

	r2, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Level)
	assert.Equal(t, 8, r2.MonsterCount)
	assert.Equal(t, 1.5, r2.SpeedMultiplier)

	// 负则停留在当前关
	_, err = env.game.EndAttempt(env.user.ID, r2.AttemptID, false, nil)
	require.NoError(t, err)

	r3, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r3.Level)

	// 放弃不参与关卡推进
	r3abort, err := env.game.AbortAttempt(env.user.ID, r3.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptAbort, r3abort.Result)

	level, err := env.game.SelectLevel(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, level)
}

func TestLevelCapsAtThree(t *testing.T) {
	env := newGameTestEnv(t)

	limit := 10
	require.NoError(t, env.game.Settings.UpdateGameRules(&limit, nil))

	for i := 0; i < 3; i++ {
		r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
		require.NoError(t, err)
		_, err = env.game.EndAttempt(env.user.ID, r.AttemptID, true, nil)
		require.NoError(t, err)
		// 保持属性满格，避免健康门槛拦截
		require.NoError(t, env.db.Model(env.pet).Updates(map[string]interface{}{
			"hunger": 100, "mood": 100, "stamina": 100, "cleanliness": 100, "health": 100,
		}).Error)
	}

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Level)
	assert.Equal(t, 10, r.MonsterCount)
	assert.Equal(t, 2.0, r.SpeedMultiplier)
}

func TestEndAttemptWinLevelOne(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	ended, err := env.game.EndAttempt(env.user.ID, r.AttemptID, true, nil)
	require.NoError(t, err)

	assert.Equal(t, model.AttemptWin, ended.Result)
	assert.Equal(t, 10, ended.PointsAwarded)
	assert.Equal(t, 100, ended.ExperienceAwarded)
	assert.Nil(t, ended.CouponCode)
	require.NotNil(t, ended.EndedAt)

	pet := env.reloadPet(t)
	assert.Equal(t, 80, pet.Hunger)
	assert.Equal(t, 100, pet.Mood)
	assert.Equal(t, 80, pet.Stamina)
	assert.Equal(t, 80, pet.Cleanliness)
	assert.Equal(t, 100, pet.Experience)

	user := env.reloadUser(t)
	assert.Equal(t, 10, user.Points)

	var records []model.PointsRecord
	require.NoError(t, env.db.Where("user_id = ?", env.user.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, 10, records[0].Delta)
	assert.Equal(t, model.PointsChangeGameReward, records[0].ChangeType)
}

func TestEndAttemptWinLevelThreeGrantsCoupon(t *testing.T) {
	env := newGameTestEnv(t)

	// 直接造一条第三关的进行中记录
	attempt := &model.GameAttempt{
		UserID: env.user.ID, PetID: env.pet.ID, Level: 3,
		MonsterCount: 10, SpeedMultiplier: 2.0,
		Result: model.AttemptInProgress, StartedAt: time.Now(),
	}
	require.NoError(t, env.db.Create(attempt).Error)

	ended, err := env.game.EndAttempt(env.user.ID, attempt.ID, true, nil)
	require.NoError(t, err)

	assert.Equal(t, 30, ended.PointsAwarded)
	assert.Equal(t, 300, ended.ExperienceAwarded)
	require.NotNil(t, ended.CouponCode)

	var coupon model.Coupon
	require.NoError(t, env.db.Where("user_id = ?", env.user.ID).First(&coupon).Error)
	assert.Equal(t, *ended.CouponCode, coupon.Code)
	assert.Equal(t, DefaultWinCouponType, coupon.TypeCode)
	assert.False(t, coupon.IsUsed)

	// 发券同时写一条零变动流水备查
	var grantCount int64
	require.NoError(t, env.db.Model(&model.PointsRecord{}).
		Where("user_id = ? AND change_type = ?", env.user.ID, model.PointsChangeCouponGrant).
		Count(&grantCount).Error)
	assert.Equal(t, int64(1), grantCount)
}

func TestEndAttemptLoseGrantsNothing(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	ended, err := env.game.EndAttempt(env.user.ID, r.AttemptID, false, nil)
	require.NoError(t, err)

	assert.Equal(t, model.AttemptLose, ended.Result)
	assert.Equal(t, 0, ended.PointsAwarded)
	assert.Equal(t, 0, ended.ExperienceAwarded)
	assert.Nil(t, ended.CouponCode)

	pet := env.reloadPet(t)
	assert.Equal(t, 70, pet.Mood)
	assert.Equal(t, 0, pet.Experience)

	user := env.reloadUser(t)
	assert.Equal(t, 0, user.Points)

	var recordCount int64
	require.NoError(t, env.db.Model(&model.PointsRecord{}).Where("user_id = ?", env.user.ID).Count(&recordCount).Error)
	assert.Equal(t, int64(0), recordCount)
}

func TestEndAttemptIdempotent(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	_, err = env.game.EndAttempt(env.user.ID, r.AttemptID, true, nil)
	require.NoError(t, err)

	_, err = env.game.EndAttempt(env.user.ID, r.AttemptID, true, nil)
	assert.ErrorIs(t, err, util.ErrAttemptEnded)

	_, err = env.game.AbortAttempt(env.user.ID, r.AttemptID)
	assert.ErrorIs(t, err, util.ErrAttemptEnded)

	// 重复结算不会重复入账
	user := env.reloadUser(t)
	assert.Equal(t, 10, user.Points)
}

func TestEndAttemptConcurrentSettlementOnce(t *testing.T) {
	env := newGameTestEnv(t)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	// 单连接串行化事务，模拟两个结算请求同时到达
	sqlDB.SetMaxOpenConns(1)

	attempt := &model.GameAttempt{
		UserID: env.user.ID, PetID: env.pet.ID, Level: 3,
		MonsterCount: 10, SpeedMultiplier: 2.0,
		Result: model.AttemptInProgress, StartedAt: time.Now(),
	}
	require.NoError(t, env.db.Create(attempt).Error)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.game.EndAttempt(env.user.ID, attempt.ID, true, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, e := range errs {
		if e == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, e, util.ErrAttemptEnded)
		}
	}
	assert.Equal(t, 1, succeeded)

	// 只有一次结算生效：单张券、单条奖励流水、余额只加一次
	var couponCount int64
	require.NoError(t, env.db.Model(&model.Coupon{}).Where("user_id = ?", env.user.ID).Count(&couponCount).Error)
	assert.Equal(t, int64(1), couponCount)

	var rewardCount int64
	require.NoError(t, env.db.Model(&model.PointsRecord{}).
		Where("user_id = ? AND change_type = ?", env.user.ID, model.PointsChangeGameReward).
		Count(&rewardCount).Error)
	assert.Equal(t, int64(1), rewardCount)

	user := env.reloadUser(t)
	assert.Equal(t, 30, user.Points)

	pet := env.reloadPet(t)
	assert.Equal(t, 80, pet.Hunger)
	assert.Equal(t, 300, pet.Experience)
}

func TestClaimTerminalGuardsSecondTransition(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, claimTerminal(env.db, r.AttemptID, map[string]interface{}{
		"result":   model.AttemptWin,
		"ended_at": now,
	}))

	// 即使调用方的进行中快照已经过期，条件更新也必须拒绝第二次终态写入
	err = claimTerminal(env.db, r.AttemptID, map[string]interface{}{
		"result":   model.AttemptAbort,
		"ended_at": now,
	})
	assert.ErrorIs(t, err, util.ErrAttemptEnded)

	var attempt model.GameAttempt
	require.NoError(t, env.db.First(&attempt, r.AttemptID).Error)
	assert.Equal(t, model.AttemptWin, attempt.Result)
}

func TestEndAttemptRejectsForeignAttempt(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	other := &model.User{Name: "other", Email: "other@example.com", Password: "hashed"}
	require.NoError(t, env.db.Create(other).Error)

	_, err = env.game.EndAttempt(other.ID, r.AttemptID, true, nil)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}

func TestEndAttemptRollsBackWhenPetGone(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	require.NoError(t, env.db.Unscoped().Delete(&model.Pet{}, env.pet.ID).Error)

	_, err = env.game.EndAttempt(env.user.ID, r.AttemptID, true, nil)
	assert.ErrorIs(t, err, util.ErrPetNotFound)

	// 整体回滚：终态未写入，奖励未入账
	var attempt model.GameAttempt
	require.NoError(t, env.db.First(&attempt, r.AttemptID).Error)
	assert.Equal(t, model.AttemptInProgress, attempt.Result)

	user := env.reloadUser(t)
	assert.Equal(t, 0, user.Points)

	var recordCount int64
	require.NoError(t, env.db.Model(&model.PointsRecord{}).Where("user_id = ?", env.user.ID).Count(&recordCount).Error)
	assert.Equal(t, int64(0), recordCount)
}

func TestAbortAttemptLeavesPetUntouched(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	aborted, err := env.game.AbortAttempt(env.user.ID, r.AttemptID)
	require.NoError(t, err)

	assert.Equal(t, model.AttemptAbort, aborted.Result)
	assert.Equal(t, 0, aborted.PointsAwarded)
	require.NotNil(t, aborted.EndedAt)

	pet := env.reloadPet(t)
	assert.Equal(t, 100, pet.Hunger)
	assert.Equal(t, 100, pet.Mood)
	assert.Equal(t, 100, pet.Stamina)
	assert.Equal(t, 100, pet.Cleanliness)

	user := env.reloadUser(t)
	assert.Equal(t, 0, user.Points)
}

func TestEndAttemptWithOverrideGrant(t *testing.T) {
	env := newGameTestEnv(t)

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	override := &RewardGrant{Points: 7, Experience: 70}
	ended, err := env.game.EndAttempt(env.user.ID, r.AttemptID, true, override)
	require.NoError(t, err)

	assert.Equal(t, 7, ended.PointsAwarded)
	assert.Equal(t, 70, ended.ExperienceAwarded)
	assert.Nil(t, ended.CouponCode)

	user := env.reloadUser(t)
	assert.Equal(t, 7, user.Points)
}

func TestCustomRewardPolicyFromSettings(t *testing.T) {
	env := newGameTestEnv(t)

	policy := &RewardPolicy{
		Levels: map[int]LevelReward{
			1: {WinPoints: 99, WinExperience: 999},
		},
	}
	require.NoError(t, env.game.Settings.UpdateGameRules(nil, policy))

	r, err := env.game.StartAttempt(env.user.ID, env.pet.ID)
	require.NoError(t, err)

	ended, err := env.game.EndAttempt(env.user.ID, r.AttemptID, true, nil)
	require.NoError(t, err)

	assert.Equal(t, 99, ended.PointsAwarded)
	assert.Equal(t, 999, ended.ExperienceAwarded)
}
