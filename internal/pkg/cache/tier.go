package cache

import (
	"Murmur/internal/api/config"
	"time"
)

// Tier 缓存层级：StaleTime 内读取直接命中，Retention 之后条目被回收
type Tier struct {
	Name      string
	StaleTime time.Duration
	Retention time.Duration
}

const (
	TierSocial   = "social"
	TierProfile  = "profile"
	TierRealtime = "realtime"
	TierStatic   = "static"
)

// Tiers 服务启动时解析出的全部层级
type Tiers struct {
	Social   Tier // 回应聚合、自己的回应、评论树、关注状态
	Profile  Tier // 用户资料、关注数
	Realtime Tier // 通知列表、未读数、信息流
	Static   Tier // 电影元数据、评分聚合
}

func DefaultTiers() Tiers {
	return Tiers{
		Social:   Tier{Name: TierSocial, StaleTime: 30 * time.Second, Retention: 5 * time.Minute},
		Profile:  Tier{Name: TierProfile, StaleTime: 5 * time.Minute, Retention: 30 * time.Minute},
		Realtime: Tier{Name: TierRealtime, StaleTime: 0, Retention: time.Minute},
		Static:   Tier{Name: TierStatic, StaleTime: time.Hour, Retention: 24 * time.Hour},
	}
}

// NewTiers 以配置覆盖默认层级，未配置的层级保持默认
func NewTiers(cfg config.CacheConfig) Tiers {
	t := DefaultTiers()
	for _, tier := range []*Tier{&t.Social, &t.Profile, &t.Realtime, &t.Static} {
		tc, ok := cfg.Tiers[tier.Name]
		if !ok {
			continue
		}
		tier.StaleTime = time.Duration(tc.StaleTime) * time.Second
		if tc.Retention > 0 {
			tier.Retention = time.Duration(tc.Retention) * time.Second
		}
	}
	return t
}
