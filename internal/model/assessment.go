package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType 问卷题目类型。
type QuestionType string

const (
	QuestionShortText    QuestionType = "short-text"
	QuestionLongText     QuestionType = "long-text"
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice"
	QuestionNumeric      QuestionType = "numeric"
	QuestionFileUpload   QuestionType = "file-upload"
)

// Question 问卷题目，类型相关字段按需填写。
// Condition 为可选表达式，引用靠前题目的作答结果，用于条件显示。
type Question struct {
	ID        string       `json:"id,omitempty"`
	Type      QuestionType `json:"type"`
	Question  string       `json:"question"`
	Required  bool         `json:"required"`
	Options   []string     `json:"options,omitempty"`
	MaxLength int          `json:"maxLength,omitempty"`
	Min       int          `json:"min,omitempty"`
	Max       int          `json:"max,omitempty"`
	Condition string       `json:"condition,omitempty"`
}

// Section 问卷分节，题目按定义顺序展示。
type Section struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Assessment 职位问卷，每个 JobID 至多一份。
type Assessment struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	JobID     string    `gorm:"uniqueIndex" json:"jobId"`
	Title     string    `json:"title"`
	Sections  []Section `gorm:"serializer:json" json:"sections"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate 插入前补齐主键。
func (a *Assessment) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AssessmentResponse 候选人的一次问卷提交，只追加不修改。
// Responses 为题目 ID 到作答内容的映射，此层不做校验。
type AssessmentResponse struct {
	ID           string            `gorm:"primaryKey" json:"id"`
	AssessmentID string            `gorm:"index" json:"assessmentId"`
	CandidateID  string            `gorm:"index" json:"candidateId"`
	Responses    datatypes.JSONMap `json:"responses"`
	SubmittedAt  time.Time         `json:"submittedAt"`
}

// BeforeCreate 插入前补齐主键。
func (r *AssessmentResponse) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
