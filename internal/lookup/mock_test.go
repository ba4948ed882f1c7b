package lookup

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/company-lookup/internal/model"
	"github.com/sells-group/company-lookup/pkg/anthropic"
	"github.com/sells-group/company-lookup/pkg/google"
)

// --- Google mock ---

type mockGoogleClient struct {
	mock.Mock
}

func (m *mockGoogleClient) Search(ctx context.Context, query string, num int) (*google.SearchResponse, error) {
	args := m.Called(ctx, query, num)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*google.SearchResponse), args.Error(1)
}

// --- Anthropic mock ---

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:      "msg_test",
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Recorder mock ---

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) CreateRun(ctx context.Context, total int) (*model.Run, error) {
	args := m.Called(ctx, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockRecorder) RecordCompany(ctx context.Context, runID string, rec model.CompanyRecord) error {
	return m.Called(ctx, runID, rec).Error(0)
}

func (m *mockRecorder) FinishRun(ctx context.Context, runID string, successCount, errorCount int) error {
	return m.Called(ctx, runID, successCount, errorCount).Error(0)
}

// --- Recording notifier ---

type recordingNotifier struct {
	mu        sync.Mutex
	started   []int
	progress  []model.ProgressEvent
	completed []companyOutcome
	summaries []model.BatchSummary
}

type companyOutcome struct {
	company string
	success bool
	errMsg  string
}

func (n *recordingNotifier) SearchStarted(total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, total)
}

func (n *recordingNotifier) Progress(ev model.ProgressEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, ev)
}

func (n *recordingNotifier) CompanyDone(company string, success bool, errMsg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, companyOutcome{company, success, errMsg})
}

func (n *recordingNotifier) BatchDone(summary model.BatchSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
}
