package geocode

import (
	"context"

	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Search(ctx context.Context, q string, limit int) ([]Place, error) {
	args := m.Called(ctx, q, limit)
	places, _ := args.Get(0).([]Place)
	return places, args.Error(1)
}
