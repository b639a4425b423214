package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"talentflow/internal/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

var jobTitles = []string{
	"Senior Software Engineer",
	"Frontend Developer",
	"Backend Developer",
	"Full Stack Developer",
	"DevOps Engineer",
	"Data Scientist",
	"Product Manager",
	"UX Designer",
	"UI Designer",
	"Marketing Manager",
	"Sales Executive",
	"HR Manager",
	"Business Analyst",
	"QA Engineer",
	"Mobile App Developer",
	"Cloud Architect",
	"Security Engineer",
	"Technical Writer",
	"Project Manager",
	"Scrum Master",
	"Data Analyst",
	"Machine Learning Engineer",
	"Customer Success Manager",
	"Digital Marketing Specialist",
	"Content Strategist",
}

var jobTags = []string{
	"React", "Node.js", "Python", "Go", "TypeScript", "AWS", "Docker",
	"Kubernetes", "PostgreSQL", "GraphQL", "Microservices", "Agile",
	"Remote", "Full-time", "Part-time", "Contract", "Senior", "Junior",
}

var firstNames = []string{
	"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Avery",
	"Quinn", "Emma", "Olivia", "Sophia", "Charlotte", "Mia", "Liam",
	"Noah", "Oliver", "William", "James", "Lucas", "Henry",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Thomas",
	"Lee", "Walker", "Young", "King", "Wright", "Nguyen", "Hill",
}

// Store 定义种子写入所需的持久化接口。
type Store interface {
	CountJobs(ctx context.Context) (int64, error)
	InsertJobs(ctx context.Context, jobs []model.Job) error
	InsertCandidates(ctx context.Context, candidates []model.Candidate) error
	InsertTimelineEvents(ctx context.Context, events []model.TimelineEvent) error
	InsertAssessments(ctx context.Context, assessments []model.Assessment) error
}

// Config 控制种子规模，零值字段使用默认值。
type Config struct {
	Jobs         int `yaml:"jobs" json:"jobs"`
	Candidates   int `yaml:"candidates" json:"candidates"`
	AssessedJobs int `yaml:"assessed_jobs" json:"assessed_jobs"`
}

// Seeder 在职位集合为空时一次性填充初始数据，之后不再运行。
type Seeder struct {
	store   Store
	cfg     Config
	workers int
	now     func() time.Time
	logger  *log.Logger
}

// NewSeeder 创建 Seeder，默认规模 25 个职位、1000 名候选人、5 份问卷。
func NewSeeder(store Store, cfg Config) *Seeder {
	if cfg.Jobs <= 0 {
		cfg.Jobs = 25
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = 1000
	}
	if cfg.AssessedJobs <= 0 {
		cfg.AssessedJobs = 5
	}
	if cfg.AssessedJobs > cfg.Jobs {
		cfg.AssessedJobs = cfg.Jobs
	}
	return &Seeder{
		store:   store,
		cfg:     cfg,
		workers: 4,
		now:     time.Now,
		logger:  log.New(os.Stdout, "[seed] ", log.LstdFlags),
	}
}

// Run 检查职位集合，非空则直接跳过；为空则依次写入职位、候选人、
// 时间线与问卷。候选人的当前阶段与时间线保持一致：从 applied 起
// 每个经过的阶段一条事件，时间严格递增。
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.store.CountJobs(ctx)
	if err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	if count > 0 {
		return nil
	}

	s.logger.Printf("seeding: jobs=%d candidates=%d", s.cfg.Jobs, s.cfg.Candidates)

	jobs := s.generateJobs()
	if err := s.store.InsertJobs(ctx, jobs); err != nil {
		return fmt.Errorf("insert jobs: %w", err)
	}

	candidates, events, err := s.generateCandidates(ctx, jobs)
	if err != nil {
		return err
	}
	if err := s.store.InsertCandidates(ctx, candidates); err != nil {
		return fmt.Errorf("insert candidates: %w", err)
	}
	if err := s.store.InsertTimelineEvents(ctx, events); err != nil {
		return fmt.Errorf("insert timeline events: %w", err)
	}

	if err := s.store.InsertAssessments(ctx, s.generateAssessments(jobs)); err != nil {
		return fmt.Errorf("insert assessments: %w", err)
	}

	s.logger.Printf("seeding complete")
	return nil
}

// generateJobs 生成 Order 为 1..N 连续排列的职位，约七成为 active。
func (s *Seeder) generateJobs() []model.Job {
	jobs := make([]model.Job, 0, s.cfg.Jobs)
	for i := 0; i < s.cfg.Jobs; i++ {
		title := jobTitles[i%len(jobTitles)]
		status := model.JobStatusActive
		if rand.Float64() > 0.7 {
			status = model.JobStatusArchived
		}
		jobs = append(jobs, model.Job{
			ID:        uuid.NewString(),
			Title:     title,
			Slug:      fmt.Sprintf("%s-%d", model.Slugify(title), i),
			Status:    status,
			Tags:      datatypes.JSONSlice[string](pick(jobTags, 2+rand.IntN(3))),
			Order:     i + 1,
			CreatedAt: s.now().Add(-time.Duration(rand.Int64N(int64(90 * 24 * time.Hour)))),
		})
	}
	return jobs
}

// generateCandidates 用 worker 池并行生成候选人及其时间线，
// 结果按 worker 序拼接后一次性批量写入。
func (s *Seeder) generateCandidates(ctx context.Context, jobs []model.Job) ([]model.Candidate, []model.TimelineEvent, error) {
	type batch struct {
		candidates []model.Candidate
		events     []model.TimelineEvent
	}

	batches := make([]batch, s.workers)
	per := (s.cfg.Candidates + s.workers - 1) / s.workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < s.workers; w++ {
		w := w
		start := w * per
		end := start + per
		if end > s.cfg.Candidates {
			end = s.cfg.Candidates
		}
		g.Go(func() error {
			var b batch
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				candidate, events := s.generateCandidate(i, jobs)
				b.candidates = append(b.candidates, candidate)
				b.events = append(b.events, events...)
			}
			batches[w] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("generate candidates: %w", err)
	}

	var candidates []model.Candidate
	var events []model.TimelineEvent
	for _, b := range batches {
		candidates = append(candidates, b.candidates...)
		events = append(events, b.events...)
	}
	return candidates, events, nil
}

func (s *Seeder) generateCandidate(i int, jobs []model.Job) (model.Candidate, []model.TimelineEvent) {
	first := firstNames[rand.IntN(len(firstNames))]
	last := lastNames[rand.IntN(len(lastNames))]
	stage := model.Stages[rand.IntN(len(model.Stages))]
	applied := s.now().Add(-time.Duration(rand.Int64N(int64(60 * 24 * time.Hour))))

	candidate := model.Candidate{
		ID:        uuid.NewString(),
		Name:      first + " " + last,
		Email:     fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
		Stage:     stage,
		JobID:     jobs[rand.IntN(len(jobs))].ID,
		CreatedAt: applied,
	}

	events := []model.TimelineEvent{{
		ID:          uuid.NewString(),
		CandidateID: candidate.ID,
		Stage:       model.StageApplied,
		Timestamp:   applied,
		Notes:       "Candidate submitted application",
	}}
	at := applied
	for idx := 1; idx <= model.StageIndex(stage); idx++ {
		at = at.Add(time.Duration(1 + rand.Int64N(int64(7*24*time.Hour))))
		events = append(events, model.TimelineEvent{
			ID:          uuid.NewString(),
			CandidateID: candidate.ID,
			Stage:       model.Stages[idx],
			Timestamp:   at,
			Notes:       fmt.Sprintf("Moved from %s to %s", model.Stages[idx-1], model.Stages[idx]),
		})
	}
	return candidate, events
}

// generateAssessments 为排序靠前的若干职位生成示例问卷，包含条件题。
func (s *Seeder) generateAssessments(jobs []model.Job) []model.Assessment {
	n := s.cfg.AssessedJobs
	if n > len(jobs) {
		n = len(jobs)
	}

	assessments := make([]model.Assessment, 0, n)
	for i := 0; i < n; i++ {
		job := jobs[i]
		assessments = append(assessments, model.Assessment{
			ID:    uuid.NewString(),
			JobID: job.ID,
			Title: job.Title + " Assessment",
			Sections: []model.Section{
				{
					Title: "Technical Skills",
					Questions: []model.Question{
						{ID: "q1", Type: model.QuestionSingleChoice, Question: "Have you worked in a similar role before?", Options: []string{"Yes", "No"}, Required: true},
						{ID: "q2", Type: model.QuestionShortText, Question: "Years of relevant experience?", MaxLength: 50, Required: true, Condition: "q1 == Yes"},
						{ID: "q3", Type: model.QuestionMultiChoice, Question: "Select the tools you have used:", Options: pick(jobTags, 4)},
						{ID: "q4", Type: model.QuestionNumeric, Question: "Rate your overall proficiency (1-10)", Min: 1, Max: 10, Required: true},
					},
				},
				{
					Title: "Background",
					Questions: []model.Question{
						{ID: "q5", Type: model.QuestionLongText, Question: "Describe a project you are proud of", MaxLength: 500, Required: true},
						{ID: "q6", Type: model.QuestionFileUpload, Question: "Upload your portfolio or resume"},
					},
				},
			},
		})
	}
	return assessments
}

// pick 随机取 n 个不重复元素。
func pick(pool []string, n int) []string {
	out := make([]string, len(pool))
	copy(out, pool)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}
