package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stage 候选人所处的招聘阶段。
type Stage string

const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTech     Stage = "tech"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

// Stages 按流水线顺序排列的全部阶段。
var Stages = []Stage{StageApplied, StageScreen, StageTech, StageOffer, StageHired, StageRejected}

// StageIndex 返回阶段在流水线中的位置，未知阶段返回 -1。
func StageIndex(s Stage) int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Candidate 表示一名候选人。
// JobID 指向 Job，非拥有引用，允许悬空（不做级联与外键校验）。
type Candidate struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index" json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Stage     Stage     `gorm:"index" json:"stage"`
	JobID     string    `gorm:"index" json:"jobId"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate 插入前补齐主键。
func (c *Candidate) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// TimelineEvent 记录候选人的一次阶段变更，只追加不修改。
type TimelineEvent struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CandidateID string    `gorm:"index" json:"candidateId"`
	Stage       Stage     `json:"stage"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
	Notes       string    `json:"notes"`
}

// BeforeCreate 插入前补齐主键。
func (e *TimelineEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
