package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/categorize"
	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/jobs"
)

// fakePublisher records published jobs and assigns deterministic IDs.
type fakePublisher struct {
	published []*jobs.RetrainJob
	err       error
}

func (p *fakePublisher) PublishRetrain(ctx context.Context, job *jobs.RetrainJob) error {
	if p.err != nil {
		return p.err
	}
	job.JobID = fmt.Sprintf("job-%d", len(p.published)+1)
	job.Status = jobs.JobStatusPending
	p.published = append(p.published, job)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeCategorizer struct {
	result    domain.CategorizationResult
	lastInput categorize.Sample
	total     int
	mergeErr  error
}

func (c *fakeCategorizer) Categorize(merchant, description string, amount float64) domain.CategorizationResult {
	return c.result
}

func (c *fakeCategorizer) MergeSample(ctx context.Context, sample categorize.Sample) (int, error) {
	if c.mergeErr != nil {
		return 0, c.mergeErr
	}
	c.lastInput = sample
	return c.total, nil
}

type fakePredictor struct {
	result      domain.PredictionResult
	lastRecords []domain.SpendingRecord
	merged      int
	mergeErr    error
}

func (p *fakePredictor) Predict(records []domain.SpendingRecord, targetMonth, targetYear int) domain.PredictionResult {
	p.lastRecords = records
	return p.result
}

func (p *fakePredictor) MergeCorpus(ctx context.Context, records []domain.SpendingRecord) (int, error) {
	if p.mergeErr != nil {
		return 0, p.mergeErr
	}
	p.lastRecords = records
	return p.merged, nil
}

type fakeAdviser struct {
	result domain.AdviceResult
	events []domain.StreamEvent
	err    error
}

func (a *fakeAdviser) Generate(ctx context.Context, req domain.AdviceRequest) domain.AdviceResult {
	return a.result
}

func (a *fakeAdviser) Stream(ctx context.Context, req domain.AdviceRequest, emit func(domain.StreamEvent) error) error {
	for _, ev := range a.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return a.err
}

type fakeExtractor struct {
	result       domain.ReceiptResult
	lastFilename string
	lastContent  []byte
}

func (e *fakeExtractor) ExtractReceipt(ctx context.Context, filename string, file io.Reader) domain.ReceiptResult {
	e.lastFilename = filename
	e.lastContent, _ = io.ReadAll(file)
	return e.result
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func TestCategorizeReturnsServiceResult(t *testing.T) {
	svc := &fakeCategorizer{result: domain.CategorizationResult{
		Category:   "food",
		Confidence: 0.9,
		Method:     "rule_based",
	}}
	h := NewCategorizeHandler(svc, &fakePublisher{}, zerolog.Nop())

	rec := postJSON(t, h.Categorize, `{"merchant": "Starbucks", "description": "coffee", "amount": 4.5}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.CategorizationResult](t, rec)
	if got != svc.result {
		t.Errorf("result = %+v, want %+v", got, svc.result)
	}
}

func TestCategorizeRejectsBadBody(t *testing.T) {
	h := NewCategorizeHandler(&fakeCategorizer{}, &fakePublisher{}, zerolog.Nop())

	rec := postJSON(t, h.Categorize, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTrainRequiresCategory(t *testing.T) {
	pub := &fakePublisher{}
	h := NewCategorizeHandler(&fakeCategorizer{}, pub, zerolog.Nop())

	rec := postJSON(t, h.Train, `{"merchant": "Uber", "description": "ride", "amount": 12}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.RetrainResult](t, rec)
	if got.Success {
		t.Error("expected success=false without correct_category")
	}
	if got.Error != "Correct category required" {
		t.Errorf("error = %q", got.Error)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d jobs, want 0", len(pub.published))
	}
}

func TestTrainMergesAndSchedulesRetrain(t *testing.T) {
	svc := &fakeCategorizer{total: 25}
	pub := &fakePublisher{}
	h := NewCategorizeHandler(svc, pub, zerolog.Nop())

	rec := postJSON(t, h.Train, `{"merchant": "Uber", "description": "ride", "amount": 12, "correct_category": "transportation"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	got := decodeBody[domain.RetrainResult](t, rec)
	if !got.Success || got.NewSamples != 25 || got.JobID == "" {
		t.Errorf("result = %+v", got)
	}
	if svc.lastInput.Category != "transportation" || svc.lastInput.Merchant != "Uber" {
		t.Errorf("merged sample = %+v", svc.lastInput)
	}
	if len(pub.published) != 1 || pub.published[0].Kind != jobs.KindCategorizer {
		t.Fatalf("published = %+v", pub.published)
	}
	if pub.published[0].Samples != 25 {
		t.Errorf("job samples = %d, want 25", pub.published[0].Samples)
	}
}

func TestTrainReportsPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("queue closed")}
	h := NewCategorizeHandler(&fakeCategorizer{total: 25}, pub, zerolog.Nop())

	rec := postJSON(t, h.Train, `{"merchant": "Uber", "correct_category": "transportation"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.RetrainResult](t, rec)
	if got.Success || got.Error == "" {
		t.Errorf("result = %+v", got)
	}
}

func TestPredictReturnsServiceResult(t *testing.T) {
	svc := &fakePredictor{result: domain.PredictionResult{
		Success:     true,
		Method:      domain.MethodTrend,
		TargetMonth: 7,
		TargetYear:  2025,
		Predictions: []domain.CategoryPrediction{
			{Category: "food", PredictedAmount: 120, Confidence: 0.6},
		},
	}}
	h := NewPredictHandler(svc, &fakePublisher{}, zerolog.Nop())

	body := `{"user_id": 1, "spending_data": [{"date": "2025-06-01", "category": "food", "amount": 100}], "target_month": 7, "target_year": 2025}`
	rec := postJSON(t, h.Predict, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.PredictionResult](t, rec)
	if !got.Success || got.Method != domain.MethodTrend || len(got.Predictions) != 1 {
		t.Errorf("result = %+v", got)
	}
	if len(svc.lastRecords) != 1 || svc.lastRecords[0].Category != "food" {
		t.Errorf("records passed = %+v", svc.lastRecords)
	}
}

func TestPredictRejectsBadBody(t *testing.T) {
	h := NewPredictHandler(&fakePredictor{}, &fakePublisher{}, zerolog.Nop())

	rec := postJSON(t, h.Predict, `[`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPredictRetrainSchedulesJob(t *testing.T) {
	svc := &fakePredictor{merged: 3}
	pub := &fakePublisher{}
	h := NewPredictHandler(svc, pub, zerolog.Nop())

	body := `{"spending_data": [{"date": "2025-06-01", "category": "food", "amount": 100}]}`
	rec := postJSON(t, h.Retrain, body)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	got := decodeBody[domain.RetrainResult](t, rec)
	if !got.Success || got.NewSamples != 3 || got.JobID != "job-1" {
		t.Errorf("result = %+v", got)
	}
	if len(pub.published) != 1 || pub.published[0].Kind != jobs.KindPredictor {
		t.Fatalf("published = %+v", pub.published)
	}
}

func TestPredictRetrainReportsMergeFailure(t *testing.T) {
	svc := &fakePredictor{mergeErr: errors.New("store unavailable")}
	pub := &fakePublisher{}
	h := NewPredictHandler(svc, pub, zerolog.Nop())

	rec := postJSON(t, h.Retrain, `{"spending_data": []}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.RetrainResult](t, rec)
	if got.Success || got.Error != "store unavailable" {
		t.Errorf("result = %+v", got)
	}
	if len(pub.published) != 0 {
		t.Error("no job should be published when the merge fails")
	}
}

func TestAdviceReturnsServiceResult(t *testing.T) {
	svc := &fakeAdviser{result: domain.AdviceResult{
		Success: true,
		Advice:  domain.Advice{Summary: "Spending is on track", ConfidenceScore: 85},
	}}
	h := NewAdviceHandler(svc, zerolog.Nop())

	rec := postJSON(t, h.Advice, `{"current_spending": [{"category": "food", "total": 120}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.AdviceResult](t, rec)
	if !got.Success || got.Advice.Summary != "Spending is on track" {
		t.Errorf("result = %+v", got)
	}
}

func TestAdviceStreamEmitsEventFrames(t *testing.T) {
	success := true
	svc := &fakeAdviser{events: []domain.StreamEvent{
		{Type: domain.StreamChunk, Text: "Your spending", Partial: true},
		{Type: domain.StreamChunk, Text: " looks healthy.", Partial: true},
		{Type: domain.StreamComplete, Advice: &domain.Advice{Summary: "ok"}, Success: &success},
	}}
	h := NewAdviceHandler(svc, zerolog.Nop())

	rec := postJSON(t, h.AdviceStream, `{}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	frames := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3: %q", len(frames), rec.Body.String())
	}
	for i, frame := range frames {
		if !strings.HasPrefix(frame, "data: ") {
			t.Fatalf("frame %d missing data prefix: %q", i, frame)
		}
		var ev domain.StreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev); err != nil {
			t.Fatalf("frame %d not valid JSON: %v", i, err)
		}
		if i < 2 && ev.Type != domain.StreamChunk {
			t.Errorf("frame %d type = %q, want chunk", i, ev.Type)
		}
	}

	var last domain.StreamEvent
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[2], "data: ")), &last); err != nil {
		t.Fatal(err)
	}
	if last.Type != domain.StreamComplete || last.Success == nil || !*last.Success {
		t.Errorf("final event = %+v", last)
	}
}

func TestAdviceStreamWritesErrorFrameOnFailure(t *testing.T) {
	svc := &fakeAdviser{err: errors.New("connection reset")}
	h := NewAdviceHandler(svc, zerolog.Nop())

	rec := postJSON(t, h.AdviceStream, `{}`)

	body := rec.Body.String()
	if !strings.Contains(body, `"type":"error"`) || !strings.Contains(body, "connection reset") {
		t.Errorf("body = %q, want error event", body)
	}
}

func TestOCRExtractReadsUploadedFile(t *testing.T) {
	svc := &fakeExtractor{result: domain.ReceiptResult{
		Success: true,
		Data:    domain.Receipt{Merchant: "Corner Cafe", TotalAmount: 42.8, Category: "food"},
	}}
	h := NewOCRHandler(svc, zerolog.Nop())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "receipt.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake image bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Extract(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[domain.ReceiptResult](t, rec)
	if !got.Success || got.Data.Merchant != "Corner Cafe" {
		t.Errorf("result = %+v", got)
	}
	if svc.lastFilename != "receipt.jpg" {
		t.Errorf("filename = %q", svc.lastFilename)
	}
	if string(svc.lastContent) != "fake image bytes" {
		t.Errorf("content = %q", svc.lastContent)
	}
}

func TestOCRExtractRequiresFileField(t *testing.T) {
	h := NewOCRHandler(&fakeExtractor{}, zerolog.Nop())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Extract(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

type readiness bool

func (r readiness) Ready() bool { return bool(r) }

func TestHealthReportsDegradedServices(t *testing.T) {
	h := NewHealthHandler(map[string]ReadinessChecker{
		"categorization": readiness(true),
		"prediction":     readiness(true),
		"ocr":            readiness(false),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	var got struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "degraded" {
		t.Errorf("status = %q, want degraded", got.Status)
	}
	if got.Services["ocr"] != "unavailable" || got.Services["prediction"] != "ready" {
		t.Errorf("services = %+v", got.Services)
	}
}

func TestHealthAllReady(t *testing.T) {
	h := NewHealthHandler(map[string]ReadinessChecker{
		"categorization": readiness(true),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	var got struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "healthy" {
		t.Errorf("status = %q, want healthy", got.Status)
	}
}

type fakeJobStore struct {
	jobs map[string]*jobs.RetrainJob
	list []*jobs.RetrainJob
}

func (s *fakeJobStore) SaveJob(ctx context.Context, job *jobs.RetrainJob) error { return nil }

func (s *fakeJobStore) GetJob(ctx context.Context, jobID string) (*jobs.RetrainJob, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

func (s *fakeJobStore) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.RetrainJob, error) {
	return s.list, nil
}

func (s *fakeJobStore) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errMsg string) error {
	return nil
}

func TestGetJobNotFound(t *testing.T) {
	h := NewJobsHandler(&fakeJobStore{jobs: map[string]*jobs.RetrainJob{}}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)
	rec := httptest.NewRecorder()
	h.GetJob(rec, req, "nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetJobFound(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*jobs.RetrainJob{
		"abc": {JobID: "abc", Kind: jobs.KindPredictor, Status: jobs.JobStatusCompleted},
	}}
	h := NewJobsHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/abc", nil)
	rec := httptest.NewRecorder()
	h.GetJob(rec, req, "abc")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeBody[jobs.RetrainJob](t, rec)
	if got.JobID != "abc" || got.Status != jobs.JobStatusCompleted {
		t.Errorf("job = %+v", got)
	}
}

func TestListJobsReturnsCount(t *testing.T) {
	store := &fakeJobStore{list: []*jobs.RetrainJob{
		{JobID: "a"}, {JobID: "b"},
	}}
	h := NewJobsHandler(store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?kind=predictor&limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListJobs(rec, req)

	var got struct {
		Jobs  []jobs.RetrainJob `json:"jobs"`
		Count int               `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Count != 2 || len(got.Jobs) != 2 {
		t.Errorf("response = %+v", got)
	}
}
