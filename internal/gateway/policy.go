package gateway

import (
	"math/rand/v2"
	"time"
)

// 路由标识，故障策略据此区分注入概率。
const (
	RouteListJobs        = "jobs.list"
	RouteGetJob          = "jobs.get"
	RouteCreateJob       = "jobs.create"
	RouteUpdateJob       = "jobs.update"
	RouteReorderJobs     = "jobs.reorder"
	RouteListCandidates  = "candidates.list"
	RouteGetCandidate    = "candidates.get"
	RouteUpdateCandidate = "candidates.update"
	RouteTimeline        = "candidates.timeline"
	RouteGetAssessment   = "assessments.get"
	RouteSaveAssessment  = "assessments.save"
	RouteSubmitResponse  = "assessments.submit"
)

// FaultPolicy 决定人为延迟与随机失败，注入网关以便测试替换为确定性实现。
type FaultPolicy interface {
	Delay() time.Duration
	ShouldFail(route string) bool
}

// FaultConfig 随机故障策略配置，零值字段使用默认值。
type FaultConfig struct {
	ErrorRate        float64 `yaml:"error_rate" json:"error_rate"`
	ReorderErrorRate float64 `yaml:"reorder_error_rate" json:"reorder_error_rate"`
	MinDelay         string  `yaml:"min_delay" json:"min_delay"`
	MaxDelay         string  `yaml:"max_delay" json:"max_delay"`
}

// RandomPolicy 按固定概率注入失败，延迟在 [min, max) 内均匀分布。
type RandomPolicy struct {
	errorRate        float64
	reorderErrorRate float64
	minDelay         time.Duration
	maxDelay         time.Duration
}

// NewRandomPolicy 创建随机故障策略，默认 5% 失败率、重排路由 10%、
// 延迟 200ms 到 1.2s。
func NewRandomPolicy(cfg FaultConfig) *RandomPolicy {
	p := &RandomPolicy{
		errorRate:        0.05,
		reorderErrorRate: 0.10,
		minDelay:         200 * time.Millisecond,
		maxDelay:         1200 * time.Millisecond,
	}
	if cfg.ErrorRate > 0 {
		p.errorRate = cfg.ErrorRate
	}
	if cfg.ReorderErrorRate > 0 {
		p.reorderErrorRate = cfg.ReorderErrorRate
	}
	if cfg.MinDelay != "" {
		if d, err := time.ParseDuration(cfg.MinDelay); err == nil && d >= 0 {
			p.minDelay = d
		}
	}
	if cfg.MaxDelay != "" {
		if d, err := time.ParseDuration(cfg.MaxDelay); err == nil && d > 0 {
			p.maxDelay = d
		}
	}
	if p.maxDelay < p.minDelay {
		p.maxDelay = p.minDelay
	}
	return p
}

// Delay 返回一次随机延迟时长。
func (p *RandomPolicy) Delay() time.Duration {
	span := p.maxDelay - p.minDelay
	if span <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(rand.Int64N(int64(span)))
}

// ShouldFail 判定本次请求是否注入失败，重排路由概率更高以便练习回滚路径。
func (p *RandomPolicy) ShouldFail(route string) bool {
	rate := p.errorRate
	if route == RouteReorderJobs {
		rate = p.reorderErrorRate
	}
	return rand.Float64() < rate
}
