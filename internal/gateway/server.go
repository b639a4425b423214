package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"talentflow/internal/hiring"
	"talentflow/internal/model"
	"talentflow/internal/storage"
)

// JobService 网关消费的职位操作接口。
type JobService interface {
	ListJobs(ctx context.Context, q hiring.JobListQuery) (storage.Page[model.Job], error)
	Job(ctx context.Context, id string) (*model.Job, error)
	CreateJob(ctx context.Context, input hiring.NewJob) (*model.Job, error)
	UpdateJob(ctx context.Context, id string, patch hiring.JobPatch) (*model.Job, error)
	ReorderJobs(ctx context.Context, fromOrder, toOrder int) error
}

// CandidateService 网关消费的候选人操作接口。
type CandidateService interface {
	ListCandidates(ctx context.Context, q hiring.CandidateListQuery) (storage.Page[model.Candidate], error)
	Candidate(ctx context.Context, id string) (*model.Candidate, error)
	UpdateCandidate(ctx context.Context, id string, patch hiring.CandidatePatch) (*model.Candidate, error)
	Timeline(ctx context.Context, candidateID string) ([]model.TimelineEvent, error)
}

// AssessmentService 网关消费的问卷操作接口。
type AssessmentService interface {
	Assessment(ctx context.Context, jobID string) (*model.Assessment, error)
	SaveAssessment(ctx context.Context, jobID string, input hiring.AssessmentInput) (*model.Assessment, error)
	SubmitResponse(ctx context.Context, assessmentID, candidateID string, responses map[string]any) (*model.AssessmentResponse, error)
}

type gateway struct {
	jobs        JobService
	candidates  CandidateService
	assessments AssessmentService
	policy      FaultPolicy
}

// NewHandler 构造挂载全部模拟路由的 HTTP 处理器。网关在调用领域操作前
// 模拟网络行为：先施加随机延迟，再按故障策略决定是否直接返回服务端错误。
// 未匹配的路由由底层 mux 兜底返回 404。
func NewHandler(jobs JobService, candidates CandidateService, assessments AssessmentService, policy FaultPolicy) http.Handler {
	g := &gateway{jobs: jobs, candidates: candidates, assessments: assessments, policy: policy}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs", g.intercept(RouteListJobs, g.listJobs))
	mux.HandleFunc("POST /api/jobs", g.intercept(RouteCreateJob, g.createJob))
	mux.HandleFunc("GET /api/jobs/{id}", g.intercept(RouteGetJob, g.getJob))
	mux.HandleFunc("PATCH /api/jobs/{id}", g.intercept(RouteUpdateJob, g.updateJob))
	mux.HandleFunc("PATCH /api/jobs/{id}/reorder", g.intercept(RouteReorderJobs, g.reorderJobs))
	mux.HandleFunc("GET /api/candidates", g.intercept(RouteListCandidates, g.listCandidates))
	mux.HandleFunc("GET /api/candidates/{id}", g.intercept(RouteGetCandidate, g.getCandidate))
	mux.HandleFunc("PATCH /api/candidates/{id}", g.intercept(RouteUpdateCandidate, g.updateCandidate))
	mux.HandleFunc("GET /api/candidates/{id}/timeline", g.intercept(RouteTimeline, g.timeline))
	mux.HandleFunc("GET /api/assessments/{jobId}", g.intercept(RouteGetAssessment, g.getAssessment))
	mux.HandleFunc("PUT /api/assessments/{jobId}", g.intercept(RouteSaveAssessment, g.saveAssessment))
	mux.HandleFunc("POST /api/assessments/{jobId}/submit", g.intercept(RouteSubmitResponse, g.submitResponse))
	return mux
}

// intercept 先施加延迟再检查失败注入。注入的失败发生在任何存储操作之前，
// 因此不会留下半套写入。
func (g *gateway) intercept(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sleep(r.Context(), g.policy.Delay()); err != nil {
			return // 调用方已放弃
		}
		if g.policy.ShouldFail(route) {
			msg := "Server error"
			if route == RouteReorderJobs {
				msg = "Reorder failed"
			}
			writeJSON(w, http.StatusInternalServerError, errorBody(msg))
			return
		}
		next(w, r)
	}
}

// sleep 等待 d 或上下文取消，延迟只挂起当前请求，不阻塞其他并发请求。
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *gateway) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := g.jobs.ListJobs(r.Context(), hiring.JobListQuery{
		Search:   q.Get("search"),
		Status:   model.JobStatus(q.Get("status")),
		Sort:     q.Get("sort"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (g *gateway) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := g.jobs.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorBody("Job not found"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (g *gateway) createJob(w http.ResponseWriter, r *http.Request) {
	var input hiring.NewJob
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
		return
	}
	job, err := g.jobs.CreateJob(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (g *gateway) updateJob(w http.ResponseWriter, r *http.Request) {
	var patch hiring.JobPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
		return
	}
	job, err := g.jobs.UpdateJob(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorBody("Job not found"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type reorderRequest struct {
	FromOrder int `json:"fromOrder"`
	ToOrder   int `json:"toOrder"`
}

func (g *gateway) reorderJobs(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
		return
	}
	if err := g.jobs.ReorderJobs(r.Context(), req.FromOrder, req.ToOrder); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (g *gateway) listCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := g.candidates.ListCandidates(r.Context(), hiring.CandidateListQuery{
		Search:   q.Get("search"),
		Stage:    model.Stage(q.Get("stage")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (g *gateway) getCandidate(w http.ResponseWriter, r *http.Request) {
	candidate, err := g.candidates.Candidate(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorBody("Candidate not found"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (g *gateway) updateCandidate(w http.ResponseWriter, r *http.Request) {
	var patch hiring.CandidatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
		return
	}
	candidate, err := g.candidates.UpdateCandidate(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorBody("Candidate not found"))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (g *gateway) timeline(w http.ResponseWriter, r *http.Request) {
	events, err := g.candidates.Timeline(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (g *gateway) getAssessment(w http.ResponseWriter, r *http.Request) {
	assessment, err := g.assessments.Assessment(r.Context(), r.PathValue("jobId"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 无问卷不是错误，返回 null 让前端走空问卷分支
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func (g *gateway) saveAssessment(w http.ResponseWriter, r *http.Request) {
	var input hiring.AssessmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
		return
	}
	assessment, err := g.assessments.SaveAssessment(r.Context(), r.PathValue("jobId"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

type submitRequest struct {
	CandidateID string         `json:"candidateId"`
	Responses   map[string]any `json:"responses"`
}

func (g *gateway) submitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid payload"))
		return
	}

	// 路由携带的是职位 ID，先解析出该职位的问卷再记录提交
	assessment, err := g.assessments.Assessment(r.Context(), r.PathValue("jobId"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorBody("Assessment not found"))
			return
		}
		writeError(w, err)
		return
	}

	resp, err := g.assessments.SubmitResponse(r.Context(), assessment.ID, req.CandidateID, req.Responses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
