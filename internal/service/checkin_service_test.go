package service

import (
	"testing"
	"time"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCheckinTestEnv(t *testing.T) (*gorm.DB, *CheckinService, *model.User) {
	t.Helper()
	db := newTestDB(t)

	clock, err := util.NewClock("UTC")
	require.NoError(t, err)

	svc := NewCheckinService(
		repository.NewCheckinRepository(db),
		repository.NewUserRepository(db),
		repository.NewPointsRepository(db),
		clock,
		db,
	)

	user := &model.User{Name: "tester", Email: "tester@example.com", Password: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return db, svc, user
}

func TestCheckinFirstDay(t *testing.T) {
	db, svc, user := newCheckinTestEnv(t)

	result, err := svc.Checkin(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.StreakDays)
	assert.Equal(t, 5, result.PointsAwarded)

	var u model.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 5, u.Points)

	var record model.PointsRecord
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&record).Error)
	assert.Equal(t, model.PointsChangeCheckin, record.ChangeType)
}

func TestCheckinTwiceSameDay(t *testing.T) {
	_, svc, user := newCheckinTestEnv(t)

	_, err := svc.Checkin(user.ID)
	require.NoError(t, err)

	_, err = svc.Checkin(user.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyCheckedIn)
}

func TestCheckinContinuesStreak(t *testing.T) {
	db, svc, user := newCheckinTestEnv(t)

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	require.NoError(t, db.Create(&model.Checkin{
		UserID:      user.ID,
		CheckinDate: yesterday.Format(util.DateFormat),
		CheckinAt:   yesterday,
		StreakDays:  3,
	}).Error)

	result, err := svc.Checkin(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 4, result.StreakDays)
	assert.Equal(t, 8, result.PointsAwarded)
}

func TestCheckinBreaksStreakAfterGap(t *testing.T) {
	db, svc, user := newCheckinTestEnv(t)

	now := time.Now().UTC()
	threeDaysAgo := now.AddDate(0, 0, -3)
	require.NoError(t, db.Create(&model.Checkin{
		UserID:      user.ID,
		CheckinDate: threeDaysAgo.Format(util.DateFormat),
		CheckinAt:   threeDaysAgo,
		StreakDays:  7,
	}).Error)

	result, err := svc.Checkin(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.StreakDays)
	assert.Equal(t, 5, result.PointsAwarded)
}

func TestCheckinBonusCapped(t *testing.T) {
	db, svc, user := newCheckinTestEnv(t)

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	require.NoError(t, db.Create(&model.Checkin{
		UserID:      user.ID,
		CheckinDate: yesterday.Format(util.DateFormat),
		CheckinAt:   yesterday,
		StreakDays:  30,
	}).Error)

	result, err := svc.Checkin(user.ID)
	require.NoError(t, err)

	assert.Equal(t, 31, result.StreakDays)
	// 连签加成封顶
	assert.Equal(t, 10, result.PointsAwarded)
}

func TestCheckinStatus(t *testing.T) {
	_, svc, user := newCheckinTestEnv(t)

	status, err := svc.Status(user.ID)
	require.NoError(t, err)
	assert.False(t, status.CheckedInToday)
	assert.Equal(t, 0, status.StreakDays)

	_, err = svc.Checkin(user.ID)
	require.NoError(t, err)

	status, err = svc.Status(user.ID)
	require.NoError(t, err)
	assert.True(t, status.CheckedInToday)
	assert.Equal(t, 1, status.StreakDays)
	assert.Equal(t, int64(1), status.TotalCheckins)
}
