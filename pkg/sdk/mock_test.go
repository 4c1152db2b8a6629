package topicsearch

import (
	"context"

	"github.com/kailas-cloud/topicsearch/internal/domain/search/request"
	"github.com/kailas-cloud/topicsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/topicsearch/internal/domain/usage"
	healthuc "github.com/kailas-cloud/topicsearch/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/topicsearch/internal/usecase/suggest"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req request.Request) (result.Page, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req request.Request) (result.Page, error) {
	return m.searchFn(ctx, req)
}

// --- suggestUseCase mock ---

type mockSuggestUC struct {
	autocompleteFn func(ctx context.Context, q string, size int) (suggestuc.Buckets, error)
	suggestFn      func(ctx context.Context, q string) (suggestuc.Suggestions, error)
}

func (m *mockSuggestUC) Autocomplete(ctx context.Context, q string, size int) (suggestuc.Buckets, error) {
	return m.autocompleteFn(ctx, q, size)
}

func (m *mockSuggestUC) Suggest(ctx context.Context, q string) (suggestuc.Suggestions, error) {
	return m.suggestFn(ctx, q)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- usageUseCase mock ---

type mockUsageUC struct {
	recorded []domusage.Endpoint
	reportFn func(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

func (m *mockUsageUC) Record(_ context.Context, endpoint domusage.Endpoint) {
	m.recorded = append(m.recorded, endpoint)
}

func (m *mockUsageUC) GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error) {
	return m.reportFn(ctx, period)
}
