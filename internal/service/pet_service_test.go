package service

import (
	"testing"

	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPetTestEnv(t *testing.T) (*gorm.DB, *PetService, *model.User) {
	t.Helper()
	db := newTestDB(t)

	svc := NewPetService(repository.NewPetRepository(db), nil)

	user := &model.User{Name: "tester", Email: "tester@example.com", Password: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return db, svc, user
}

func TestAdoptPet(t *testing.T) {
	_, svc, user := newPetTestEnv(t)

	pet, err := svc.AdoptPet(user.ID, "Momo")
	require.NoError(t, err)

	assert.Equal(t, "Momo", pet.Name)
	assert.Equal(t, 1, pet.Level)
	assert.Equal(t, 100, pet.Hunger)
	assert.Equal(t, 100, pet.Health)

	// 每个用户只能领养一只
	_, err = svc.AdoptPet(user.ID, "SecondPet")
	assert.ErrorIs(t, err, util.ErrPetAlreadyAdopted)
}

func TestGetMyPetNotAdopted(t *testing.T) {
	_, svc, user := newPetTestEnv(t)

	_, err := svc.GetMyPet(user.ID)
	assert.ErrorIs(t, err, util.ErrPetNotFound)
}

func TestCareActions(t *testing.T) {
	db, svc, user := newPetTestEnv(t)

	pet := &model.Pet{
		UserID: user.ID, Name: "Momo", Level: 1,
		Hunger: 40, Mood: 40, Stamina: 40, Cleanliness: 40, Health: 50,
	}
	require.NoError(t, db.Create(pet).Error)

	fed, err := svc.FeedPet(user.ID, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, fed.Hunger)

	played, err := svc.PlayWithPet(user.ID, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, played.Mood)
	assert.Equal(t, 30, played.Stamina)

	cleaned, err := svc.CleanPet(user.ID, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, cleaned.Cleanliness)

	rested, err := svc.RestPet(user.ID, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, rested.Stamina)
}

func TestCareClampsAtMax(t *testing.T) {
	db, svc, user := newPetTestEnv(t)

	pet := &model.Pet{
		UserID: user.ID, Name: "Momo", Level: 1,
		Hunger: 90, Mood: 100, Stamina: 100, Cleanliness: 100, Health: 40,
	}
	require.NoError(t, db.Create(pet).Error)

	fed, err := svc.FeedPet(user.ID, pet.ID)
	require.NoError(t, err)

	assert.Equal(t, 100, fed.Hunger)
	// 四项满格触发健康回满
	assert.Equal(t, 100, fed.Health)
}

func TestCareRejectsForeignPet(t *testing.T) {
	db, svc, user := newPetTestEnv(t)

	other := &model.User{Name: "other", Email: "other@example.com", Password: "hashed"}
	require.NoError(t, db.Create(other).Error)

	pet := &model.Pet{UserID: other.ID, Name: "NotMine", Level: 1, Hunger: 50, Mood: 50, Stamina: 50, Cleanliness: 50, Health: 50}
	require.NoError(t, db.Create(pet).Error)

	_, err := svc.FeedPet(user.ID, pet.ID)
	assert.ErrorIs(t, err, util.ErrPetNotFound)
}

func TestCanStartAdventure(t *testing.T) {
	db, svc, user := newPetTestEnv(t)

	pet := &model.Pet{
		UserID: user.ID, Name: "Momo", Level: 1,
		Hunger: 50, Mood: 50, Stamina: 0, Cleanliness: 50, Health: 50,
	}
	require.NoError(t, db.Create(pet).Error)

	ready, attr, err := svc.CanStartAdventure(pet.ID)
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, model.AttrStamina, attr)

	require.NoError(t, db.Model(pet).Update("stamina", 10).Error)

	ready, attr, err = svc.CanStartAdventure(pet.ID)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Empty(t, attr)

	// 宠物不存在按不允许处理
	_, _, err = svc.CanStartAdventure(99999)
	assert.ErrorIs(t, err, util.ErrPetNotFound)
}
