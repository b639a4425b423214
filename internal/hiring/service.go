package hiring

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"talentflow/internal/model"
	"talentflow/internal/storage"

	"gorm.io/datatypes"
)

const (
	defaultJobPageSize       = 10
	defaultCandidatePageSize = 50
	defaultJobSort           = "order"
)

// Store 定义领域操作所需的持久化接口，便于测试替换。
type Store interface {
	ListJobs(ctx context.Context, q storage.JobQuery) (storage.Page[model.Job], error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	CreateJob(ctx context.Context, job *model.Job) error
	UpdateJob(ctx context.Context, id string, values map[string]any) (*model.Job, error)
	ReorderJobs(ctx context.Context, fromOrder, toOrder int) error

	ListCandidates(ctx context.Context, q storage.CandidateQuery) (storage.Page[model.Candidate], error)
	GetCandidate(ctx context.Context, id string) (*model.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, values map[string]any) (*model.Candidate, error)
	AppendTimelineEvent(ctx context.Context, event *model.TimelineEvent) error
	ListTimeline(ctx context.Context, candidateID string) ([]model.TimelineEvent, error)

	AssessmentByJob(ctx context.Context, jobID string) (*model.Assessment, error)
	CreateAssessment(ctx context.Context, assessment *model.Assessment) error
	UpdateAssessment(ctx context.Context, id, title string, sections []model.Section) (*model.Assessment, error)
	CreateResponse(ctx context.Context, resp *model.AssessmentResponse) error
}

// Service 实现招聘流程的领域操作，可绕过网关直接调用与测试。
type Service struct {
	store Store
	now   func() time.Time
}

// NewService 创建领域服务。
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// JobListQuery 职位列表查询参数。
type JobListQuery struct {
	Search   string
	Status   model.JobStatus
	Sort     string
	Page     int
	PageSize int
}

// ListJobs 按状态精确匹配、标题或任一标签子串匹配（不区分大小写）过滤，
// 再按 Sort 排序分页，默认按展示顺序。
func (s *Service) ListJobs(ctx context.Context, q JobListQuery) (storage.Page[model.Job], error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultJobPageSize
	}
	if q.Sort == "" {
		q.Sort = defaultJobSort
	}
	return s.store.ListJobs(ctx, storage.JobQuery{
		Search:   q.Search,
		Status:   q.Status,
		Sort:     q.Sort,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
}

// Job 返回单个职位，不存在时返回 sql.ErrNoRows。
func (s *Service) Job(ctx context.Context, id string) (*model.Job, error) {
	return s.store.GetJob(ctx, id)
}

// NewJob 创建职位的输入。
type NewJob struct {
	Title  string          `json:"title"`
	Slug   string          `json:"slug"`
	Status model.JobStatus `json:"status"`
	Tags   []string        `json:"tags"`
}

// CreateJob 创建职位：Order 取当前最大值加一（空表为 1），Slug 缺省时由
// 标题派生，状态缺省为 active。不校验 Slug 唯一性，允许重复。
func (s *Service) CreateJob(ctx context.Context, input NewJob) (*model.Job, error) {
	slug := input.Slug
	if slug == "" {
		slug = model.Slugify(input.Title)
	}
	status := input.Status
	if status == "" {
		status = model.JobStatusActive
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	job := model.Job{
		Title:  input.Title,
		Slug:   slug,
		Status: status,
		Tags:   datatypes.JSONSlice[string](tags),
	}
	if err := s.store.CreateJob(ctx, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobPatch 职位的部分更新，指针字段缺省表示保持原值。
// Order 不在此列，只能通过 ReorderJobs 改变。
type JobPatch struct {
	Title  *string          `json:"title"`
	Slug   *string          `json:"slug"`
	Status *model.JobStatus `json:"status"`
	Tags   *[]string        `json:"tags"`
}

// UpdateJob 合并部分字段，职位不存在时返回 sql.ErrNoRows。
func (s *Service) UpdateJob(ctx context.Context, id string, patch JobPatch) (*model.Job, error) {
	values := map[string]any{}
	if patch.Title != nil {
		values["title"] = *patch.Title
	}
	if patch.Slug != nil {
		values["slug"] = *patch.Slug
	}
	if patch.Status != nil {
		values["status"] = *patch.Status
	}
	if patch.Tags != nil {
		values["tags"] = datatypes.JSONSlice[string](*patch.Tags)
	}
	return s.store.UpdateJob(ctx, id, values)
}

// ReorderJobs 移动职位展示顺序，整套新排列原子生效或整体放弃。
func (s *Service) ReorderJobs(ctx context.Context, fromOrder, toOrder int) error {
	return s.store.ReorderJobs(ctx, fromOrder, toOrder)
}

// CandidateListQuery 候选人列表查询参数。
type CandidateListQuery struct {
	Search   string
	Stage    model.Stage
	Page     int
	PageSize int
}

// ListCandidates 按阶段精确匹配、姓名或邮箱子串匹配（不区分大小写）过滤，
// 按创建时间倒序分页。
func (s *Service) ListCandidates(ctx context.Context, q CandidateListQuery) (storage.Page[model.Candidate], error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultCandidatePageSize
	}
	return s.store.ListCandidates(ctx, storage.CandidateQuery{
		Search:   q.Search,
		Stage:    q.Stage,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
}

// Candidate 返回单个候选人，不存在时返回 sql.ErrNoRows。
func (s *Service) Candidate(ctx context.Context, id string) (*model.Candidate, error) {
	return s.store.GetCandidate(ctx, id)
}

// CandidatePatch 候选人的部分更新。Notes 只写入阶段变更事件，
// 不落在候选人记录上。
type CandidatePatch struct {
	Name  *string      `json:"name"`
	Email *string      `json:"email"`
	Stage *model.Stage `json:"stage"`
	JobID *string      `json:"jobId"`
	Notes *string      `json:"notes"`
}

// UpdateCandidate 合并部分字段。当 Stage 发生实际变化时，先追加一条
// TimelineEvent 再提交候选人更新；Stage 与当前相同则不产生任何事件。
// 阶段之间不限制转移方向，任意阶段可以直接跳到任意阶段。
func (s *Service) UpdateCandidate(ctx context.Context, id string, patch CandidatePatch) (*model.Candidate, error) {
	current, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Stage != nil && *patch.Stage != current.Stage {
		notes := ""
		if patch.Notes != nil {
			notes = *patch.Notes
		}
		event := model.TimelineEvent{
			CandidateID: id,
			Stage:       *patch.Stage,
			Timestamp:   s.now(),
			Notes:       notes,
		}
		if err := s.store.AppendTimelineEvent(ctx, &event); err != nil {
			return nil, fmt.Errorf("append timeline event: %w", err)
		}
	}

	values := map[string]any{}
	if patch.Name != nil {
		values["name"] = *patch.Name
	}
	if patch.Email != nil {
		values["email"] = *patch.Email
	}
	if patch.Stage != nil {
		values["stage"] = *patch.Stage
	}
	if patch.JobID != nil {
		values["job_id"] = *patch.JobID
	}
	return s.store.UpdateCandidate(ctx, id, values)
}

// Timeline 返回候选人的阶段变更时间线，按时间升序。
func (s *Service) Timeline(ctx context.Context, candidateID string) ([]model.TimelineEvent, error) {
	return s.store.ListTimeline(ctx, candidateID)
}

// Assessment 返回职位问卷，不存在时返回 sql.ErrNoRows。
func (s *Service) Assessment(ctx context.Context, jobID string) (*model.Assessment, error) {
	return s.store.AssessmentByJob(ctx, jobID)
}

// AssessmentInput 保存问卷的输入。
type AssessmentInput struct {
	Title    string          `json:"title"`
	Sections []model.Section `json:"sections"`
}

// SaveAssessment 对 jobID 做 upsert：已有问卷原地更新，否则新建并挂上
// jobID。每个职位始终至多一份问卷。
func (s *Service) SaveAssessment(ctx context.Context, jobID string, input AssessmentInput) (*model.Assessment, error) {
	existing, err := s.store.AssessmentByJob(ctx, jobID)
	switch {
	case err == nil:
		return s.store.UpdateAssessment(ctx, existing.ID, input.Title, input.Sections)
	case errors.Is(err, sql.ErrNoRows):
		assessment := model.Assessment{
			JobID:    jobID,
			Title:    input.Title,
			Sections: input.Sections,
		}
		if err := s.store.CreateAssessment(ctx, &assessment); err != nil {
			return nil, err
		}
		return &assessment, nil
	default:
		return nil, err
	}
}

// SubmitResponse 追加一次问卷提交。此层不校验作答内容，校验属于展示层。
func (s *Service) SubmitResponse(ctx context.Context, assessmentID, candidateID string, responses map[string]any) (*model.AssessmentResponse, error) {
	if responses == nil {
		responses = map[string]any{}
	}
	resp := model.AssessmentResponse{
		AssessmentID: assessmentID,
		CandidateID:  candidateID,
		Responses:    datatypes.JSONMap(responses),
		SubmittedAt:  s.now(),
	}
	if err := s.store.CreateResponse(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
