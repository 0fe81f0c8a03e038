package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"petopia_backend/internal/config"
	"petopia_backend/internal/model"
	"petopia_backend/internal/repository"
	"petopia_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const settingCacheTTL = 5 * time.Minute

// SettingService 读取管理端配置并组装规则快照。
// settings 表的值经 redis 缓存，管理端更新时失效。
type SettingService struct {
	SettingRepo *repository.SettingRepository
	Redis       *redis.Client

	mu  sync.RWMutex
	cfg *config.Config // 兜底默认值，配置热加载时整体替换
}

func NewSettingService(settingRepo *repository.SettingRepository, rdb *redis.Client, cfg *config.Config) *SettingService {
	return &SettingService{
		SettingRepo: settingRepo,
		Redis:       rdb,
		cfg:         cfg,
	}
}

// ReloadConfig 配置文件热加载回调，替换兜底配置
func (s *SettingService) ReloadConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *SettingService) fallbackLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg != nil && s.cfg.Game.DailyAttemptLimit > 0 {
		return s.cfg.Game.DailyAttemptLimit
	}
	return DefaultDailyAttemptLimit
}

func (s *SettingService) cacheKey(key string) string {
	return "setting:" + key
}

// getValue 读取单个配置值，优先走缓存；不存在时返回空串
func (s *SettingService) getValue(key string) (string, error) {
	ctx := context.Background()
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, s.cacheKey(key)).Result(); err == nil {
			return cached, nil
		}
	}

	setting, err := s.SettingRepo.Get(key)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}

	if s.Redis != nil {
		s.Redis.Set(ctx, s.cacheKey(key), setting.Value, settingCacheTTL)
	}
	return setting.Value, nil
}

func (s *SettingService) invalidate(keys ...string) {
	if s.Redis == nil {
		return
	}
	ctx := context.Background()
	for _, key := range keys {
		s.Redis.Del(ctx, s.cacheKey(key))
	}
}

// EffectiveGameRules 组装当前生效的规则快照：
// 默认值 <- 配置文件 <- settings 表。解析失败按默认值处理并记日志。
func (s *SettingService) EffectiveGameRules() GameRules {
	rules := GameRules{
		DailyAttemptLimit: s.fallbackLimit(),
		Rewards:           DefaultRewardPolicy(),
	}

	if raw, err := s.getValue(model.SettingDailyAttemptLimit); err != nil {
		logger.Log.Error("read daily attempt limit setting", zap.Error(err))
	} else if raw != "" {
		if limit, err := strconv.Atoi(raw); err != nil || limit <= 0 {
			logger.Log.Warn("invalid daily attempt limit setting", zap.String("value", raw))
		} else {
			rules.DailyAttemptLimit = limit
		}
	}

	if raw, err := s.getValue(model.SettingGameRewardPolicy); err != nil {
		logger.Log.Error("read reward policy setting", zap.Error(err))
	} else if raw != "" {
		var policy RewardPolicy
		if err := json.Unmarshal([]byte(raw), &policy); err != nil || len(policy.Levels) == 0 {
			logger.Log.Warn("invalid reward policy setting", zap.String("value", raw))
		} else {
			rules.Rewards = policy
		}
	}

	return rules
}

// UpdateGameRules 管理端更新规则，写库后失效缓存
func (s *SettingService) UpdateGameRules(dailyLimit *int, policy *RewardPolicy) error {
	if dailyLimit != nil {
		if err := s.SettingRepo.Upsert(model.SettingDailyAttemptLimit, strconv.Itoa(*dailyLimit)); err != nil {
			return err
		}
	}
	if policy != nil {
		raw, err := json.Marshal(policy)
		if err != nil {
			return err
		}
		if err := s.SettingRepo.Upsert(model.SettingGameRewardPolicy, string(raw)); err != nil {
			return err
		}
	}
	s.invalidate(model.SettingDailyAttemptLimit, model.SettingGameRewardPolicy)
	return nil
}
