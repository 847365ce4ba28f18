package mocks

import (
	"context"

	"github.com/Slade66/media-grabber/internal/extractor"
	"github.com/stretchr/testify/mock"
)

// MockExtractor is a testify mock of extractor.Extractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Probe(ctx context.Context, url string) (*extractor.Info, error) {
	args := m.Called(ctx, url)
	if info := args.Get(0); info != nil {
		return info.(*extractor.Info), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExtractor) Fetch(ctx context.Context, url, format, dest string, onProgress func(extractor.Progress)) error {
	args := m.Called(ctx, url, format, dest, onProgress)
	return args.Error(0)
}
