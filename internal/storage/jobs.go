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

// JobQuery 提供职位分页查询条件。
type JobQuery struct {
	Search   string
	Status   model.JobStatus
	Sort     string
	Page     int
	PageSize int
}

// jobSortColumns 排序字段白名单，防止拼接任意列名。
var jobSortColumns = map[string]string{
	"order":     "sort_order",
	"title":     "title",
	"slug":      "slug",
	"status":    "status",
	"createdAt": "created_at",
}

// CreateJob 插入职位；未指定 Order 时在同一事务内取当前最大值加一，
// 保证 Order 集合始终是 1..N 的连续排列。
func (s *Store) CreateJob(ctx context.Context, job *model.Job) error {
	return s.Transaction(ctx, []Collection{CollectionJobs}, func(tx *gorm.DB) error {
		if job.Order <= 0 {
			var max sql.NullInt64
			if err := tx.Model(&model.Job{}).Select("MAX(sort_order)").Scan(&max).Error; err != nil {
				return fmt.Errorf("max job order: %w", err)
			}
			job.Order = int(max.Int64) + 1
		}
		if err := tx.Create(job).Error; err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		return nil
	})
}

// InsertJobs 批量写入种子职位。
func (s *Store) InsertJobs(ctx context.Context, jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	return s.Transaction(ctx, []Collection{CollectionJobs}, func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&jobs, 100).Error; err != nil {
			return fmt.Errorf("insert jobs: %w", err)
		}
		return nil
	})
}

// GetJob 根据 ID 获取职位，缺失时返回 sql.ErrNoRows。
func (s *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// UpdateJob 合并部分字段并返回更新后的职位，缺失时返回 sql.ErrNoRows。
func (s *Store) UpdateJob(ctx context.Context, id string, values map[string]any) (*model.Job, error) {
	if len(values) > 0 {
		err := s.Transaction(ctx, []Collection{CollectionJobs}, func(tx *gorm.DB) error {
			res := tx.Model(&model.Job{}).Where("id = ?", id).Updates(values)
			if res.Error != nil {
				return fmt.Errorf("update job: %w", res.Error)
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
	return s.GetJob(ctx, id)
}

// ListJobs 先过滤再排序分页，返回分页信封。
func (s *Store) ListJobs(ctx context.Context, q JobQuery) (Page[model.Job], error) {
	page := normalizePage(q.Page)
	size := q.PageSize
	if size <= 0 {
		size = 10
	}

	var total int64
	if err := applyJobFilters(s.db.WithContext(ctx).Model(&model.Job{}), q).Count(&total).Error; err != nil {
		return Page[model.Job]{}, fmt.Errorf("count jobs: %w", err)
	}

	column, ok := jobSortColumns[q.Sort]
	if !ok {
		column = "sort_order"
	}

	var jobs []model.Job
	if err := applyJobFilters(s.db.WithContext(ctx).Model(&model.Job{}), q).
		Order(column + " ASC").Order("id ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&jobs).Error; err != nil {
		return Page[model.Job]{}, fmt.Errorf("list jobs: %w", err)
	}

	return Page[model.Job]{
		Data:       jobs,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages(total, size),
	}, nil
}

// CountJobs 返回职位总数，种子填充据此判断是否已初始化。
func (s *Store) CountJobs(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Job{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return total, nil
}

// JobsByOrder 返回按 Order 升序排列的全部职位。
func (s *Store) JobsByOrder(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := s.db.WithContext(ctx).Order("sort_order ASC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs by order: %w", err)
	}
	return jobs, nil
}

// ReorderJobs 将 fromOrder 处的职位移动到 toOrder，区间内其余职位整体平移补位。
// 读取、计算、写入都在 jobs 锁与同一事务内完成：要么整套新排列生效，要么保持原状；
// 背靠背发起的两次重排会串行执行，后者看到前者的完整结果。
func (s *Store) ReorderJobs(ctx context.Context, fromOrder, toOrder int) error {
	return s.Transaction(ctx, []Collection{CollectionJobs}, func(tx *gorm.DB) error {
		var jobs []model.Job
		if err := tx.Order("sort_order ASC").Find(&jobs).Error; err != nil {
			return fmt.Errorf("load jobs: %w", err)
		}
		moves, err := shiftOrders(jobs, fromOrder, toOrder)
		if err != nil {
			return err
		}
		for id, order := range moves {
			if err := tx.Model(&model.Job{}).Where("id = ?", id).Update("sort_order", order).Error; err != nil {
				return fmt.Errorf("apply order: %w", err)
			}
		}
		return nil
	})
}

// shiftOrders 计算重排后的新排列，只返回顺序发生变化的职位。
// fromOrder 无对应职位或 toOrder 超出 1..N 时报错，此时不会有任何写入。
func shiftOrders(jobs []model.Job, fromOrder, toOrder int) (map[string]int, error) {
	if fromOrder == toOrder {
		return nil, nil
	}
	found := false
	for _, job := range jobs {
		if job.Order == fromOrder {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("reorder: no job at order %d", fromOrder)
	}
	if toOrder < 1 || toOrder > len(jobs) {
		return nil, fmt.Errorf("reorder: target order %d out of range 1..%d", toOrder, len(jobs))
	}

	moves := make(map[string]int)
	for _, job := range jobs {
		switch {
		case job.Order == fromOrder:
			moves[job.ID] = toOrder
		case fromOrder < toOrder && job.Order > fromOrder && job.Order <= toOrder:
			moves[job.ID] = job.Order - 1
		case fromOrder > toOrder && job.Order >= toOrder && job.Order < fromOrder:
			moves[job.ID] = job.Order + 1
		}
	}
	return moves, nil
}

func applyJobFilters(db *gorm.DB, q JobQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	// SQLite 的 lower 只折叠 ASCII，非 ASCII 字符按存储原样参与匹配
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		db = db.Where(
			"instr(lower(title), ?) > 0 OR EXISTS (SELECT 1 FROM json_each(jobs.tags) WHERE instr(lower(json_each.value), ?) > 0)",
			search, search,
		)
	}
	return db
}
