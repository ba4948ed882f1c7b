package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/company-lookup/internal/model"
	"github.com/sells-group/company-lookup/internal/resilience"
	"github.com/sells-group/company-lookup/pkg/anthropic"
)

// extractionTemperature keeps field formatting near-deterministic.
const extractionTemperature = 0.1

// Extractor runs the model-backed extraction and verification calls.
type Extractor struct {
	llm       anthropic.Client
	model     string
	maxTokens int64

	// Per-operation copies of the retry policy, fixed at construction so
	// calls never mutate shared state.
	retryExtract resilience.Policy
	retryVerify  resilience.Policy
}

// NewExtractor creates an Extractor using the given model. The retry policy
// governs each remote call; unparsable responses count against it.
func NewExtractor(llm anthropic.Client, modelID string, maxTokens int64, retry resilience.Policy) *Extractor {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	retry.ShouldRetry = func(err error) bool {
		var unparsable *UnparsableResponseError
		return resilience.IsTransient(err) || errors.As(err, &unparsable)
	}

	e := &Extractor{llm: llm, model: modelID, maxTokens: maxTokens}
	e.retryExtract = retry
	e.retryExtract.OnRetry = resilience.LogRetries("anthropic", "extract")
	e.retryVerify = retry
	e.retryVerify.OnRetry = resilience.LogRetries("anthropic", "verify")
	return e
}

// Extract asks the model for a first-pass record from the search results.
func (e *Extractor) Extract(ctx context.Context, companyName string, results []model.SearchResult) (model.CompanyFields, error) {
	fields, err := e.call(ctx, e.retryExtract, BuildExtractionPrompt(companyName, results))
	if err != nil {
		return model.CompanyFields{}, &StageError{Stage: StageExtract, Err: err}
	}

	if fields.AllEmpty() {
		// Low-confidence but valid: the record flows through unchanged.
		zap.L().Warn("extraction produced no fields", zap.String("company", companyName))
	}
	return fields, nil
}

// Verify asks the model to correct the first-pass record against a second
// round of search results.
func (e *Extractor) Verify(ctx context.Context, companyName string, first model.CompanyFields, factCheckResults []model.SearchResult) (model.CompanyFields, error) {
	fields, err := e.call(ctx, e.retryVerify, BuildVerificationPrompt(companyName, first, factCheckResults))
	if err != nil {
		return model.CompanyFields{}, &StageError{Stage: StageVerify, Err: err}
	}
	return fields, nil
}

func (e *Extractor) call(ctx context.Context, retry resilience.Policy, prompt string) (model.CompanyFields, error) {
	temp := extractionTemperature
	return resilience.Attempt(ctx, retry, func(ctx context.Context) (model.CompanyFields, error) {
		resp, err := e.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       e.model,
			MaxTokens:   e.maxTokens,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
		if err != nil {
			return model.CompanyFields{}, err
		}
		resp.Usage.LogUsage(e.model, "lookup")
		return parseFields(resp.Text())
	})
}

// parseFields extracts the first {...} spanning substring of the model's
// free-form reply and decodes it.
func parseFields(text string) (model.CompanyFields, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return model.CompanyFields{}, &UnparsableResponseError{Raw: text}
	}

	var fields model.CompanyFields
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return model.CompanyFields{}, &UnparsableResponseError{Raw: text}
	}
	return fields, nil
}
