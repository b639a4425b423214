package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"talentflow/internal/model"

	"gorm.io/gorm"
)

// CandidateQuery 提供候选人分页查询条件。
type CandidateQuery struct {
	Search   string
	Stage    model.Stage
	Page     int
	PageSize int
}

// InsertCandidates 批量写入种子候选人。
func (s *Store) InsertCandidates(ctx context.Context, candidates []model.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	return s.Transaction(ctx, []Collection{CollectionCandidates}, func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&candidates, 200).Error; err != nil {
			return fmt.Errorf("insert candidates: %w", err)
		}
		return nil
	})
}

// GetCandidate 根据 ID 获取候选人，缺失时返回 sql.ErrNoRows。
func (s *Store) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	var candidate model.Candidate
	if err := s.db.WithContext(ctx).First(&candidate, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return &candidate, nil
}

// UpdateCandidate 合并部分字段并返回更新后的候选人，缺失时返回 sql.ErrNoRows。
func (s *Store) UpdateCandidate(ctx context.Context, id string, values map[string]any) (*model.Candidate, error) {
	if len(values) > 0 {
		err := s.Transaction(ctx, []Collection{CollectionCandidates}, func(tx *gorm.DB) error {
			res := tx.Model(&model.Candidate{}).Where("id = ?", id).Updates(values)
			if res.Error != nil {
				return fmt.Errorf("update candidate: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return sql.ErrNoRows
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return s.GetCandidate(ctx, id)
}

// ListCandidates 先过滤再按创建时间倒序分页，返回分页信封。
func (s *Store) ListCandidates(ctx context.Context, q CandidateQuery) (Page[model.Candidate], error) {
	page := normalizePage(q.Page)
	size := q.PageSize
	if size <= 0 {
		size = 50
	}

	var total int64
	if err := applyCandidateFilters(s.db.WithContext(ctx).Model(&model.Candidate{}), q).Count(&total).Error; err != nil {
		return Page[model.Candidate]{}, fmt.Errorf("count candidates: %w", err)
	}

	var candidates []model.Candidate
	if err := applyCandidateFilters(s.db.WithContext(ctx).Model(&model.Candidate{}), q).
		Order("created_at DESC").Order("id ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&candidates).Error; err != nil {
		return Page[model.Candidate]{}, fmt.Errorf("list candidates: %w", err)
	}

	return Page[model.Candidate]{
		Data:       candidates,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages(total, size),
	}, nil
}

// AppendTimelineEvent 追加一条阶段变更记录，时间线只增不改。
func (s *Store) AppendTimelineEvent(ctx context.Context, event *model.TimelineEvent) error {
	return s.Transaction(ctx, []Collection{CollectionTimeline}, func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("append timeline event: %w", err)
		}
		return nil
	})
}

// InsertTimelineEvents 批量写入种子时间线。
func (s *Store) InsertTimelineEvents(ctx context.Context, events []model.TimelineEvent) error {
	if len(events) == 0 {
		return nil
	}
	return s.Transaction(ctx, []Collection{CollectionTimeline}, func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&events, 500).Error; err != nil {
			return fmt.Errorf("insert timeline events: %w", err)
		}
		return nil
	})
}

// ListTimeline 返回候选人的全部时间线记录，按时间升序。
func (s *Store) ListTimeline(ctx context.Context, candidateID string) ([]model.TimelineEvent, error) {
	var events []model.TimelineEvent
	if err := s.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("timestamp ASC").Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	return events, nil
}

func applyCandidateFilters(db *gorm.DB, q CandidateQuery) *gorm.DB {
	if q.Stage != "" {
		db = db.Where("stage = ?", q.Stage)
	}
	// SQLite 的 lower 只折叠 ASCII，非 ASCII 字符按存储原样参与匹配
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		db = db.Where("instr(lower(name), ?) > 0 OR instr(lower(email), ?) > 0", search, search)
	}
	return db
}
