package service

// 关卡与奖励的默认规则。管理端可通过 settings 覆盖每日次数上限与奖励表，
// 难度参数表是玩法常量，不开放配置。

const (
	MinAdventureLevel = 1
	MaxAdventureLevel = 3

	DefaultDailyAttemptLimit = 3
	DefaultWinCouponType     = "adventure_lv3_win"
)

// LevelDifficulty 关卡难度参数，创建冒险时固化到记录上
type LevelDifficulty struct {
	MonsterCount    int     `json:"monsterCount"`
	SpeedMultiplier float64 `json:"speedMultiplier"`
}

var levelDifficulties = map[int]LevelDifficulty{
	1: {MonsterCount: 6, SpeedMultiplier: 1.0},
	2: {MonsterCount: 8, SpeedMultiplier: 1.5},
	3: {MonsterCount: 10, SpeedMultiplier: 2.0},
}

// DifficultyForLevel 返回关卡的难度参数
func DifficultyForLevel(level int) (LevelDifficulty, bool) {
	d, ok := levelDifficulties[level]
	return d, ok
}

// LevelReward 单个关卡的奖励配置
type LevelReward struct {
	WinPoints      int    `json:"winPoints"`
	WinExperience  int    `json:"winExperience"`
	WinCouponType  string `json:"winCouponType,omitempty"`
	LosePoints     int    `json:"losePoints"`
	LoseExperience int    `json:"loseExperience"`
}

// RewardPolicy 按关卡的奖励表
type RewardPolicy struct {
	Levels map[int]LevelReward `json:"levels"`
}

// ForLevel 返回关卡的奖励配置，未配置的关卡回落到默认表
func (p RewardPolicy) ForLevel(level int) LevelReward {
	if r, ok := p.Levels[level]; ok {
		return r
	}
	return DefaultRewardPolicy().Levels[level]
}

// DefaultRewardPolicy 管理端未配置时的默认奖励表
func DefaultRewardPolicy() RewardPolicy {
	return RewardPolicy{
		Levels: map[int]LevelReward{
			1: {WinPoints: 10, WinExperience: 100},
			2: {WinPoints: 20, WinExperience: 200},
			3: {WinPoints: 30, WinExperience: 300, WinCouponType: DefaultWinCouponType},
		},
	}
}

// GameRules 一次引擎调用所使用的规则快照
type GameRules struct {
	DailyAttemptLimit int          `json:"dailyAttemptLimit"`
	Rewards           RewardPolicy `json:"rewards"`
}

// RewardGrant 本次冒险结算实际发放的奖励
type RewardGrant struct {
	Points     int    `json:"points"`
	Experience int    `json:"experience"`
	CouponType string `json:"couponType,omitempty"`
}

// GrantFor 根据胜负从奖励表取出应发放的奖励
func (p RewardPolicy) GrantFor(level int, isWin bool) RewardGrant {
	r := p.ForLevel(level)
	if isWin {
		return RewardGrant{Points: r.WinPoints, Experience: r.WinExperience, CouponType: r.WinCouponType}
	}
	return RewardGrant{Points: r.LosePoints, Experience: r.LoseExperience}
}
