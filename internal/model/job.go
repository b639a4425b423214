package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus 职位状态。
type JobStatus string

const (
	JobStatusActive   JobStatus = "active"
	JobStatusArchived JobStatus = "archived"
)

// Job 招聘职位。Slug 由标题派生、允许重复；Order 为展示顺序，
// 存储列为 sort_order，全表保持 1..N 连续唯一。
type Job struct {
	ID        string                      `gorm:"primaryKey" json:"id"`
	Title     string                      `gorm:"index" json:"title"`
	Slug      string                      `gorm:"index" json:"slug"`
	Status    JobStatus                   `gorm:"index" json:"status"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	Order     int                         `gorm:"column:sort_order;index" json:"order"`
	CreatedAt time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// BeforeCreate 插入前补齐主键。
func (j *Job) BeforeCreate(*gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

// Slugify 把标题转成小写连字符 slug。
func Slugify(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), "-")
}
