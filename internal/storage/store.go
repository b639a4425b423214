package storage

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"talentflow/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Collection 标识一张记录集合，事务按集合粒度加锁。
type Collection int

const (
	CollectionJobs Collection = iota
	CollectionCandidates
	CollectionTimeline
	CollectionAssessments
	CollectionResponses
	collectionCount
)

// Store 封装 SQLite 数据库访问，负责职位、候选人、时间线、问卷五张集合的增改查。
// 每张集合持有独立互斥锁，同一集合的写操作串行执行，不同集合互不阻塞。
type Store struct {
	db *gorm.DB
	mu [collectionCount]sync.Mutex
}

// Page 是分页查询的统一信封，TotalPages = ceil(Total/PageSize)。
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Job{},
		&model.Candidate{},
		&model.TimelineEvent{},
		&model.Assessment{},
		&model.AssessmentResponse{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Transaction 按固定顺序锁住指定集合后在数据库事务中执行 body。
// body 返回错误时整体回滚，部分写入不会对外可见；锁在所有退出路径上释放。
func (s *Store) Transaction(ctx context.Context, collections []Collection, body func(tx *gorm.DB) error) error {
	locked := lockOrder(collections)
	for _, c := range locked {
		s.mu[c].Lock()
	}
	defer func() {
		for i := len(locked) - 1; i >= 0; i-- {
			s.mu[locked[i]].Unlock()
		}
	}()
	return s.db.WithContext(ctx).Transaction(body)
}

// lockOrder 去重并按固定顺序排列集合，避免交叉加锁死锁。
func lockOrder(collections []Collection) []Collection {
	seen := make(map[Collection]struct{}, len(collections))
	out := make([]Collection, 0, len(collections))
	for _, c := range collections {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
