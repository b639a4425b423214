package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talentflow/internal/hiring"
	"talentflow/internal/model"
	"talentflow/internal/storage"
)

func newTestHandler(policy FaultPolicy, jobs *stubJobs, candidates *stubCandidates, assessments *stubAssessments) http.Handler {
	if jobs == nil {
		jobs = &stubJobs{}
	}
	if candidates == nil {
		candidates = &stubCandidates{}
	}
	if assessments == nil {
		assessments = &stubAssessments{}
	}
	return NewHandler(jobs, candidates, assessments, policy)
}

func TestListJobsRoute(t *testing.T) {
	t.Parallel()

	jobs := &stubJobs{page: storage.Page[model.Job]{Data: []model.Job{{ID: "J1", Title: "Backend"}}, Total: 1, Page: 1, PageSize: 10, TotalPages: 1}}
	h := newTestHandler(passPolicy{}, jobs, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?search=back&page=2&pageSize=5&sort=title", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if jobs.listCalls != 1 {
		t.Fatalf("expected service called once, got %d", jobs.listCalls)
	}
	if jobs.lastQuery.Search != "back" || jobs.lastQuery.Page != 2 || jobs.lastQuery.PageSize != 5 || jobs.lastQuery.Sort != "title" {
		t.Fatalf("query params not forwarded: %+v", jobs.lastQuery)
	}
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	jobs := &stubJobs{getErr: sql.ErrNoRows}
	h := newTestHandler(passPolicy{}, jobs, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Job not found" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestCreateJobReturnsCreated(t *testing.T) {
	t.Parallel()

	jobs := &stubJobs{created: &model.Job{ID: "J1", Title: "QA Engineer", Order: 1}}
	h := newTestHandler(passPolicy{}, jobs, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{"title":"QA Engineer"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if jobs.lastNewJob.Title != "QA Engineer" {
		t.Fatalf("body not forwarded: %+v", jobs.lastNewJob)
	}
}

func TestInjectedFailureShortCircuits(t *testing.T) {
	t.Parallel()

	jobs := &stubJobs{}
	h := newTestHandler(failPolicy{}, jobs, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Server error" {
		t.Fatalf("unexpected error body: %v", body)
	}
	if jobs.listCalls != 0 {
		t.Fatalf("service reached despite injected failure")
	}
}

func TestReorderFailureInjectedBeforeMutation(t *testing.T) {
	t.Parallel()

	jobs := &stubJobs{}
	h := newTestHandler(failPolicy{}, jobs, nil, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/jobs/J1/reorder", strings.NewReader(`{"fromOrder":1,"toOrder":3}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Reorder failed" {
		t.Fatalf("unexpected error body: %v", body)
	}
	if jobs.reorderCalls != 0 {
		t.Fatalf("reorder executed despite injected failure")
	}
}

func TestReorderSuccessBody(t *testing.T) {
	t.Parallel()

	jobs := &stubJobs{}
	h := newTestHandler(passPolicy{}, jobs, nil, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/jobs/J1/reorder", strings.NewReader(`{"fromOrder":2,"toOrder":1}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if jobs.reorderFrom != 2 || jobs.reorderTo != 1 {
		t.Fatalf("orders not forwarded: from=%d to=%d", jobs.reorderFrom, jobs.reorderTo)
	}
	var body map[string]bool
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if !body["success"] {
		t.Fatalf("expected success body, got %s", w.Body.String())
	}
}

func TestUpdateCandidateRoute(t *testing.T) {
	t.Parallel()

	candidates := &stubCandidates{updated: &model.Candidate{ID: "C1", Stage: model.StageScreen}}
	h := newTestHandler(passPolicy{}, nil, candidates, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/candidates/C1", strings.NewReader(`{"stage":"screen","notes":"ok"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if candidates.lastID != "C1" {
		t.Fatalf("path id not forwarded: %s", candidates.lastID)
	}
	if candidates.lastPatch.Stage == nil || *candidates.lastPatch.Stage != model.StageScreen {
		t.Fatalf("stage not decoded: %+v", candidates.lastPatch)
	}
	if candidates.lastPatch.Notes == nil || *candidates.lastPatch.Notes != "ok" {
		t.Fatalf("notes not decoded: %+v", candidates.lastPatch)
	}
}

func TestGetAssessmentNullWhenMissing(t *testing.T) {
	t.Parallel()

	assessments := &stubAssessments{getErr: sql.ErrNoRows}
	h := newTestHandler(passPolicy{}, nil, nil, assessments)

	req := httptest.NewRequest(http.MethodGet, "/api/assessments/J1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "null" {
		t.Fatalf("expected null body, got %q", w.Body.String())
	}
}

func TestSubmitResolvesAssessmentFromJob(t *testing.T) {
	t.Parallel()

	assessments := &stubAssessments{
		assessment: &model.Assessment{ID: "A1", JobID: "J1"},
		response:   &model.AssessmentResponse{ID: "R1", AssessmentID: "A1", CandidateID: "C1"},
	}
	h := newTestHandler(passPolicy{}, nil, nil, assessments)

	req := httptest.NewRequest(http.MethodPost, "/api/assessments/J1/submit", strings.NewReader(`{"candidateId":"C1","responses":{"q1":"Yes"}}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if assessments.submitAssessmentID != "A1" {
		t.Fatalf("expected submit against resolved assessment, got %s", assessments.submitAssessmentID)
	}
	if assessments.submitCandidateID != "C1" {
		t.Fatalf("candidate id not forwarded: %s", assessments.submitCandidateID)
	}
}

func TestUnmatchedRoutePassesThrough(t *testing.T) {
	t.Parallel()

	h := newTestHandler(passPolicy{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected mux 404 for unmatched route, got %d", w.Code)
	}
}

// --- stubs ---

// passPolicy 零延迟、从不失败，测试用确定性策略。
type passPolicy struct{}

func (passPolicy) Delay() time.Duration   { return 0 }
func (passPolicy) ShouldFail(string) bool { return false }

// failPolicy 零延迟、总是失败。
type failPolicy struct{}

func (failPolicy) Delay() time.Duration   { return 0 }
func (failPolicy) ShouldFail(string) bool { return true }

type stubJobs struct {
	page         storage.Page[model.Job]
	created      *model.Job
	getErr       error
	listCalls    int
	reorderCalls int
	reorderFrom  int
	reorderTo    int
	lastQuery    hiring.JobListQuery
	lastNewJob   hiring.NewJob
}

func (s *stubJobs) ListJobs(_ context.Context, q hiring.JobListQuery) (storage.Page[model.Job], error) {
	s.listCalls++
	s.lastQuery = q
	return s.page, nil
}

func (s *stubJobs) Job(context.Context, string) (*model.Job, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &model.Job{ID: "J1"}, nil
}

func (s *stubJobs) CreateJob(_ context.Context, input hiring.NewJob) (*model.Job, error) {
	s.lastNewJob = input
	return s.created, nil
}

func (s *stubJobs) UpdateJob(_ context.Context, id string, _ hiring.JobPatch) (*model.Job, error) {
	return &model.Job{ID: id}, nil
}

func (s *stubJobs) ReorderJobs(_ context.Context, from, to int) error {
	s.reorderCalls++
	s.reorderFrom = from
	s.reorderTo = to
	return nil
}

type stubCandidates struct {
	updated   *model.Candidate
	lastID    string
	lastPatch hiring.CandidatePatch
}

func (s *stubCandidates) ListCandidates(context.Context, hiring.CandidateListQuery) (storage.Page[model.Candidate], error) {
	return storage.Page[model.Candidate]{}, nil
}

func (s *stubCandidates) Candidate(context.Context, string) (*model.Candidate, error) {
	return &model.Candidate{ID: "C1"}, nil
}

func (s *stubCandidates) UpdateCandidate(_ context.Context, id string, patch hiring.CandidatePatch) (*model.Candidate, error) {
	s.lastID = id
	s.lastPatch = patch
	return s.updated, nil
}

func (s *stubCandidates) Timeline(context.Context, string) ([]model.TimelineEvent, error) {
	return nil, nil
}

type stubAssessments struct {
	assessment         *model.Assessment
	response           *model.AssessmentResponse
	getErr             error
	submitAssessmentID string
	submitCandidateID  string
}

func (s *stubAssessments) Assessment(context.Context, string) (*model.Assessment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.assessment, nil
}

func (s *stubAssessments) SaveAssessment(_ context.Context, jobID string, input hiring.AssessmentInput) (*model.Assessment, error) {
	return &model.Assessment{JobID: jobID, Title: input.Title, Sections: input.Sections}, nil
}

func (s *stubAssessments) SubmitResponse(_ context.Context, assessmentID, candidateID string, _ map[string]any) (*model.AssessmentResponse, error) {
	s.submitAssessmentID = assessmentID
	s.submitCandidateID = candidateID
	return s.response, nil
}
