package testutils

import (
	"context"
	"encoding/json"

	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockAdvisoryService provides a mock implementation of outbound.AdvisoryService
type MockAdvisoryService struct {
	mock.Mock
}

func (m *MockAdvisoryService) Advise(ctx context.Context, req outbound.AdvisoryRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if raw := args.Get(0); raw != nil {
		return raw.(json.RawMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdvisoryService) Name() string {
	return "mock"
}

// MockPriceSource provides a mock implementation of outbound.PriceSource
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) Quote(ctx context.Context, item, unit string) (*outbound.PriceQuote, error) {
	args := m.Called(ctx, item, unit)
	if q := args.Get(0); q != nil {
		return q.(*outbound.PriceQuote), args.Error(1)
	}
	return nil, args.Error(1)
}
