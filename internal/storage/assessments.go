package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"talentflow/internal/model"

	"gorm.io/gorm"
)

// AssessmentByJob 返回指定职位的问卷，不存在时返回 sql.ErrNoRows。
// 每个 JobID 至多一份问卷，由唯一索引保证。
func (s *Store) AssessmentByJob(ctx context.Context, jobID string) (*model.Assessment, error) {
	var assessment model.Assessment
	if err := s.db.WithContext(ctx).First(&assessment, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return &assessment, nil
}

// CreateAssessment 新建问卷。
func (s *Store) CreateAssessment(ctx context.Context, assessment *model.Assessment) error {
	return s.Transaction(ctx, []Collection{CollectionAssessments}, func(tx *gorm.DB) error {
		if err := tx.Create(assessment).Error; err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}
		return nil
	})
}

// UpdateAssessment 原地更新问卷标题与分节，返回更新后的记录。
// 用 map 更新使零值同样落库：清空的标题不会残留旧值。
func (s *Store) UpdateAssessment(ctx context.Context, id, title string, sections []model.Section) (*model.Assessment, error) {
	raw, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}
	err = s.Transaction(ctx, []Collection{CollectionAssessments}, func(tx *gorm.DB) error {
		res := tx.Model(&model.Assessment{}).Where("id = ?", id).Updates(map[string]any{"title": title, "sections": string(raw)})
		if res.Error != nil {
			return fmt.Errorf("update assessment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var assessment model.Assessment
	if err := s.db.WithContext(ctx).First(&assessment, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("reload assessment: %w", err)
	}
	return &assessment, nil
}

// InsertAssessments 批量写入种子问卷。
func (s *Store) InsertAssessments(ctx context.Context, assessments []model.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	return s.Transaction(ctx, []Collection{CollectionAssessments}, func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&assessments, 50).Error; err != nil {
			return fmt.Errorf("insert assessments: %w", err)
		}
		return nil
	})
}

// CreateResponse 追加一次问卷提交，提交记录只增不改。
func (s *Store) CreateResponse(ctx context.Context, resp *model.AssessmentResponse) error {
	return s.Transaction(ctx, []Collection{CollectionResponses}, func(tx *gorm.DB) error {
		if err := tx.Create(resp).Error; err != nil {
			return fmt.Errorf("create assessment response: %w", err)
		}
		return nil
	})
}
