package mocks

import (
	"context"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"github.com/omnitool-ai/omnitool-sub002/pkg/protocol"
	"github.com/stretchr/testify/mock"
)

// MockCDN is a mock implementation of protocol.CDN interface.
type MockCDN struct {
	mock.Mock
}

func (m *MockCDN) Find(ctx context.Context, fid string) (*models.Handle, error) {
	args := m.Called(ctx, fid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Handle), args.Error(1)
}

func (m *MockCDN) Get(ctx context.Context, ref models.Handle, opts protocol.GetOptions, format protocol.GetFormat) (*models.Handle, error) {
	args := m.Called(ctx, ref, opts, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Handle), args.Error(1)
}

func (m *MockCDN) PutTemp(ctx context.Context, data []byte, opts protocol.PutOptions) (*models.Handle, error) {
	args := m.Called(ctx, data, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Handle), args.Error(1)
}

// MockFetcher is a mock implementation of protocol.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}

	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// MockAPIExecutor is a mock implementation of protocol.APIExecutor interface.
type MockAPIExecutor struct {
	mock.Mock
}

func (m *MockAPIExecutor) Execute(ctx context.Context, apiKey string, body map[string]any, opts protocol.RequestOptions, caller protocol.Caller) (any, error) {
	args := m.Called(ctx, apiKey, body, opts, caller)

	return args.Get(0), args.Error(1)
}
