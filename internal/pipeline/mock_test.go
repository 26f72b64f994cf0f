package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/rrf-map/internal/model"
	"github.com/sells-group/rrf-map/internal/registry"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchAll(ctx context.Context, q registry.Query, onPage registry.PageFunc) ([]model.RawRecord, registry.Summary, error) {
	args := m.Called(ctx, q, onPage)
	raws, _ := args.Get(0).([]model.RawRecord)
	if onPage != nil && raws != nil {
		onPage(1, &registry.Page{Results: raws})
	}
	return raws, args.Get(1).(registry.Summary), args.Error(2)
}
