package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/company-lookup/internal/lookup"
	"github.com/sells-group/company-lookup/internal/resilience"
	"github.com/sells-group/company-lookup/internal/store"
	"github.com/sells-group/company-lookup/pkg/anthropic"
	"github.com/sells-group/company-lookup/pkg/google"
)

// pipelineEnv bundles the wired pipeline and its persistence backend.
type pipelineEnv struct {
	Pipeline *lookup.Pipeline
	Store    store.Store
}

func (e *pipelineEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close", zap.Error(err))
	}
}

// initStore opens the configured run-history store.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// initPipeline wires the search and extraction clients into a Pipeline.
// Missing credentials do not fail startup: each lookup fails fast instead,
// so the server still comes up and reports the problem per request.
func initPipeline(ctx context.Context, extra ...lookup.Option) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	gc := google.NewClient(cfg.Google.Key, cfg.Google.CX,
		google.WithBaseURL(cfg.Google.BaseURL))
	searcher := lookup.NewSearcher(gc, cfg.Google.Num, cfg.Pipeline.SearchFallback)

	llm := anthropic.NewClient(cfg.Anthropic.Key)
	extractor := lookup.NewExtractor(llm, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens,
		resilience.DefaultPolicy())

	opts := []lookup.Option{
		lookup.WithDelay(cfg.Pipeline.Delay()),
		lookup.WithRecorder(st),
	}
	if err := cfg.CredentialsError(); err != nil {
		zap.L().Warn("API credentials missing, lookups will fail", zap.Error(err))
		opts = append(opts, lookup.WithCredentialsError(lookup.ErrCredentialsMissing))
	}
	opts = append(opts, extra...)

	return &pipelineEnv{
		Pipeline: lookup.New(searcher, extractor, opts...),
		Store:    st,
	}, nil
}
