package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-lookup/internal/model"
	"github.com/sells-group/company-lookup/internal/resilience"
	"github.com/sells-group/company-lookup/pkg/anthropic"
)

func testPolicy() resilience.Policy {
	return resilience.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, Multiplier: 2}
}

func TestParseFields_JSONWithSurroundingProse(t *testing.T) {
	text := "抽出結果は以下の通りです。\n{\n  \"postalCode\": \"1000001\",\n  \"prefecture\": \"東京都\",\n  \"city\": \"千代田区\",\n  \"address\": \"丸の内1-1-1\",\n  \"representativeTitle\": \"代表取締役社長\",\n  \"representativeName\": \"山田太郎\"\n}\n以上です。"

	fields, err := parseFields(text)
	require.NoError(t, err)
	assert.Equal(t, "1000001", fields.PostalCode)
	assert.Equal(t, "東京都", fields.Prefecture)
	assert.Equal(t, "千代田区", fields.City)
	assert.Equal(t, "丸の内1-1-1", fields.Address)
	assert.Equal(t, "代表取締役社長", fields.RepresentativeTitle)
	assert.Equal(t, "山田太郎", fields.RepresentativeName)
}

func TestParseFields_NoBraces(t *testing.T) {
	_, err := parseFields("情報が見つかりませんでした。")
	var unparsable *UnparsableResponseError
	require.True(t, errors.As(err, &unparsable))
	assert.Contains(t, unparsable.Raw, "情報")
}

func TestParseFields_MalformedJSON(t *testing.T) {
	_, err := parseFields(`{"postalCode": `)
	var unparsable *UnparsableResponseError
	assert.True(t, errors.As(err, &unparsable))
}

func TestExtract_Success(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"postalCode":"1000001","prefecture":"東京都","city":"千代田区","address":"丸の内1-1-1","representativeTitle":"代表取締役社長","representativeName":"山田太郎"}`), nil).
		Once()

	e := NewExtractor(llm, "claude-sonnet-4-5-20250929", 1024, testPolicy())
	fields, err := e.Extract(context.Background(), "株式会社テスト", samplePromptResults)

	require.NoError(t, err)
	assert.Equal(t, "1000001", fields.PostalCode)
	llm.AssertExpectations(t)

	// Temperature is pinned low for consistent formatting.
	req := llm.Calls[0].Arguments[1].(anthropic.MessageRequest)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.1, *req.Temperature, 0.001)
	assert.Equal(t, int64(1024), req.MaxTokens)
}

func TestExtract_AllEmptyFieldsIsNotAnError(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"postalCode":"","prefecture":"","city":"","address":"","representativeTitle":"","representativeName":""}`), nil).
		Once()

	e := NewExtractor(llm, "m", 1024, testPolicy())
	fields, err := e.Extract(context.Background(), "株式会社テスト", nil)

	require.NoError(t, err)
	assert.True(t, fields.AllEmpty())
}

func TestExtract_UnparsableRetriedThreeTimes(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("JSONではない返答"), nil).
		Times(3)

	e := NewExtractor(llm, "m", 1024, testPolicy())
	_, err := e.Extract(context.Background(), "株式会社テスト", nil)

	require.Error(t, err)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageExtract, stageErr.Stage)
	var unparsable *UnparsableResponseError
	assert.True(t, errors.As(err, &unparsable))
	llm.AssertExpectations(t)
}

func TestExtract_TransientErrorRetried(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(eris.New("overloaded"), 529)).
		Twice()
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"postalCode":"1000001"}`), nil).
		Once()

	e := NewExtractor(llm, "m", 1024, testPolicy())
	fields, err := e.Extract(context.Background(), "株式会社テスト", nil)

	require.NoError(t, err)
	assert.Equal(t, "1000001", fields.PostalCode)
	llm.AssertExpectations(t)
}

func TestExtract_ServerErrorsExhaustRetryPolicy(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"internal server error"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	llm := anthropic.NewClient("test-key", option.WithBaseURL(srv.URL))
	e := NewExtractor(llm, "claude-sonnet-4-5-20250929", 1024, testPolicy())

	_, err := e.Extract(context.Background(), "株式会社テスト", samplePromptResults)

	require.Error(t, err)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageExtract, stageErr.Stage)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, requests, "the policy owns the attempt count end to end")
}

func TestExtractor_ConcurrentExtractAndVerify(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"postalCode":"1000001"}`), nil)

	e := NewExtractor(llm, "m", 1024, testPolicy())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Extract(context.Background(), "株式会社テスト", nil)
			assert.NoError(t, err)
			_, err = e.Verify(context.Background(), "株式会社テスト", model.CompanyFields{}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestExtract_NonTransientNotRetried(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, eris.New("invalid api key")).
		Once()

	e := NewExtractor(llm, "m", 1024, testPolicy())
	_, err := e.Extract(context.Background(), "株式会社テスト", nil)

	require.Error(t, err)
	llm.AssertExpectations(t)
}

func TestExtract_WaitsBackoffBetweenAttempts(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("not json"), nil).
		Times(3)

	policy := resilience.Policy{MaxAttempts: 3, InitialBackoff: 20 * time.Millisecond, Multiplier: 2}
	e := NewExtractor(llm, "m", 1024, policy)

	start := time.Now()
	_, err := e.Extract(context.Background(), "株式会社テスト", nil)
	require.Error(t, err)

	// Two backoff sleeps at 20ms and 40ms.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestVerify_WrapsFailureAsVerifyStage(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, eris.New("bad request")).
		Once()

	e := NewExtractor(llm, "m", 1024, testPolicy())
	_, err := e.Verify(context.Background(), "株式会社テスト", model.CompanyFields{}, nil)

	require.Error(t, err)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageVerify, stageErr.Stage)
	assert.Contains(t, err.Error(), "検証中にエラー")
}

func TestVerify_Success(t *testing.T) {
	llm := &mockLLMClient{}
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"postalCode":"1000001","prefecture":"東京都","city":"千代田区","address":"丸の内1-1-1","representativeTitle":"代表取締役","representativeName":"山田太郎"}`), nil).
		Once()

	e := NewExtractor(llm, "m", 1024, testPolicy())
	fields, err := e.Verify(context.Background(), "株式会社テスト",
		model.CompanyFields{PostalCode: "9999999"}, samplePromptResults)

	require.NoError(t, err)
	assert.Equal(t, "1000001", fields.PostalCode)
	assert.Equal(t, "代表取締役", fields.RepresentativeTitle)
}
