package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDifficultyForLevel(t *testing.T) {
	tests := []struct {
		level    int
		monsters int
		speed    float64
	}{
		{1, 6, 1.0},
		{2, 8, 1.5},
		{3, 10, 2.0},
	}

	for _, tt := range tests {
		d, ok := DifficultyForLevel(tt.level)
		assert.True(t, ok)
		assert.Equal(t, tt.monsters, d.MonsterCount)
		assert.Equal(t, tt.speed, d.SpeedMultiplier)
	}

	_, ok := DifficultyForLevel(4)
	assert.False(t, ok)
}

func TestDefaultRewardPolicy(t *testing.T) {
	policy := DefaultRewardPolicy()

	grant := policy.GrantFor(1, true)
	assert.Equal(t, RewardGrant{Points: 10, Experience: 100}, grant)

	grant = policy.GrantFor(2, true)
	assert.Equal(t, RewardGrant{Points: 20, Experience: 200}, grant)

	grant = policy.GrantFor(3, true)
	assert.Equal(t, 30, grant.Points)
	assert.Equal(t, 300, grant.Experience)
	assert.Equal(t, DefaultWinCouponType, grant.CouponType)

	// 失败不发任何奖励
	for level := 1; level <= 3; level++ {
		grant = policy.GrantFor(level, false)
		assert.Equal(t, RewardGrant{}, grant)
	}
}

func TestRewardPolicyFallsBackToDefaults(t *testing.T) {
	policy := RewardPolicy{Levels: map[int]LevelReward{
		2: {WinPoints: 50, WinExperience: 500},
	}}

	assert.Equal(t, 50, policy.GrantFor(2, true).Points)
	// 未覆盖的关卡用默认表
	assert.Equal(t, 10, policy.GrantFor(1, true).Points)
	assert.Equal(t, DefaultWinCouponType, policy.GrantFor(3, true).CouponType)
}
