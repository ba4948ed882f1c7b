// Package lookup implements the company-information enrichment pipeline:
// search, extract, re-search, verify, notify.
package lookup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/company-lookup/internal/model"
)

// Human-readable step labels pushed to clients with each transition.
const (
	stepLabelSearchBasic      = "基本情報を検索中..."
	stepLabelExtract          = "情報を抽出中..."
	stepLabelSearchAdditional = "追加情報を検索中..."
	stepLabelVerify           = "情報を検証中..."
	stepLabelDone             = "検索完了"
)

// Recorder persists batch bookkeeping. Failures to record are logged and
// never affect pipeline results.
type Recorder interface {
	CreateRun(ctx context.Context, totalCompanies int) (*model.Run, error)
	RecordCompany(ctx context.Context, runID string, rec model.CompanyRecord) error
	FinishRun(ctx context.Context, runID string, successCount, errorCount int) error
}

// Pipeline orchestrates the per-company enrichment steps over a batch.
type Pipeline struct {
	searcher  *Searcher
	extractor *Extractor
	notifier  Notifier
	latest    *LatestResultStore
	recorder  Recorder
	delay     time.Duration
	credsErr  error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNotifier sets the event sink for progress notifications.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithLatestResultStore sets the slot holding the most recent batch results.
func WithLatestResultStore(s *LatestResultStore) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.latest = s
		}
	}
}

// WithRecorder sets the run-history recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithDelay sets the pause between companies.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		p.delay = d
	}
}

// WithCredentialsError makes every lookup fail immediately with the given
// error instead of attempting remote calls.
func WithCredentialsError(err error) Option {
	return func(p *Pipeline) {
		p.credsErr = err
	}
}

// New creates a Pipeline.
func New(searcher *Searcher, extractor *Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher:  searcher,
		extractor: extractor,
		notifier:  NopNotifier{},
		latest:    &LatestResultStore{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Latest exposes the slot holding the most recent batch results.
func (p *Pipeline) Latest() *LatestResultStore {
	return p.latest
}

// ProcessBatch runs the pipeline for each company strictly sequentially and
// returns exactly one record per input name, in submission order. A failure
// of one company never aborts the batch; cancellation marks the remaining
// companies as failed rather than dropping them.
func (p *Pipeline) ProcessBatch(ctx context.Context, companyNames []string) []model.CompanyRecord {
	p.latest.Begin()
	p.notifier.SearchStarted(len(companyNames))

	var runID string
	if p.recorder != nil {
		run, err := p.recorder.CreateRun(ctx, len(companyNames))
		if err != nil {
			zap.L().Warn("pipeline: failed to create run record", zap.Error(err))
		} else {
			runID = run.ID
		}
	}

	// One token per company, refilled at the inter-company delay, keeps
	// load on both external APIs bounded.
	var limiter *rate.Limiter
	if p.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(p.delay), 1)
	}

	results := make([]model.CompanyRecord, 0, len(companyNames))
	for _, name := range companyNames {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				rec := p.fail(name, fmt.Errorf("処理が中断されました: %w", err))
				results = p.finishCompany(ctx, runID, results, rec)
				continue
			}
		}
		rec := p.processOne(ctx, name)
		results = p.finishCompany(ctx, runID, results, rec)
	}

	summary := model.Summarize(results)
	if p.recorder != nil && runID != "" {
		if err := p.recorder.FinishRun(ctx, runID, summary.SuccessCount, summary.ErrorCount); err != nil {
			zap.L().Warn("pipeline: failed to finish run record", zap.Error(err))
		}
	}

	p.latest.Put(results)
	p.notifier.BatchDone(summary)
	return results
}

func (p *Pipeline) finishCompany(ctx context.Context, runID string, results []model.CompanyRecord, rec model.CompanyRecord) []model.CompanyRecord {
	if p.recorder != nil && runID != "" {
		if err := p.recorder.RecordCompany(ctx, runID, rec); err != nil {
			zap.L().Warn("pipeline: failed to record company outcome",
				zap.String("company", rec.CompanyName),
				zap.Error(err),
			)
		}
	}
	p.notifier.CompanyDone(rec.CompanyName, !rec.Failed(), rec.Error)
	return append(results, rec)
}

// processOne walks a single company through the five pipeline steps and
// always reaches a terminal state.
func (p *Pipeline) processOne(ctx context.Context, companyName string) model.CompanyRecord {
	log := zap.L().With(zap.String("company", companyName))

	if p.credsErr != nil {
		log.Error("lookup rejected: credentials not configured")
		return p.fail(companyName, ErrCredentialsMissing)
	}

	// Step 1: basic search.
	p.step(companyName, stepLabelSearchBasic, 1)
	basicResults, degradedBasic, err := p.searcher.Search(ctx, BuildBasicQuery(companyName))
	if err != nil {
		log.Warn("basic search failed", zap.Error(err))
		return p.fail(companyName, err)
	}

	// Step 2: first-pass extraction.
	p.step(companyName, stepLabelExtract, 2)
	first, err := p.extractor.Extract(ctx, companyName, basicResults)
	if err != nil {
		log.Warn("extraction failed", zap.Error(err))
		return p.fail(companyName, err)
	}

	// Step 3: fact-check search.
	p.step(companyName, stepLabelSearchAdditional, 3)
	factQuery := BuildFactCheckQuery(companyName, first)
	factResults, degradedFact, err := p.searcher.Search(ctx, factQuery)
	if err != nil {
		log.Warn("fact-check search failed", zap.String("query", factQuery), zap.Error(err))
		return p.fail(companyName, err)
	}

	// Step 4: verification.
	p.step(companyName, stepLabelVerify, 4)
	verified, err := p.extractor.Verify(ctx, companyName, first, factResults)
	if err != nil {
		log.Warn("verification failed", zap.Error(err))
		return p.fail(companyName, err)
	}

	// Step 5: done.
	p.step(companyName, stepLabelDone, 5)
	return model.ResolvedRecord(companyName, verified, degradedBasic || degradedFact)
}

func (p *Pipeline) step(companyName, label string, number int) {
	p.notifier.Progress(model.ProgressEvent{
		Company:    companyName,
		Step:       label,
		StepNumber: model.Step(number),
	})
}

func (p *Pipeline) fail(companyName string, cause error) model.CompanyRecord {
	p.notifier.Progress(model.ProgressEvent{
		Company:    companyName,
		Step:       fmt.Sprintf("エラー: %v", cause),
		StepNumber: model.StepError(),
	})
	return model.FailedRecord(companyName, cause)
}
