package upstream

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify mock of the Provider interface.
type MockProvider struct {
	mock.Mock

	ProviderName string
	NativeFormat Format
	Credentialed bool
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}

	return "mock"
}

func (m *MockProvider) Format() Format {
	if m.NativeFormat != "" {
		return m.NativeFormat
	}

	return FormatBaidu
}

func (m *MockProvider) RequiresCredential() bool {
	return m.Credentialed
}

func (m *MockProvider) Endpoint() string {
	return "http://127.0.0.1/mock"
}

func (m *MockProvider) Lookup(ctx context.Context, query Query, credential string) (*Location, error) {
	args := m.Mock.Called(query, credential)

	if v := args.Get(0); v != nil {
		return v.(*Location), args.Error(1)
	}

	return nil, args.Error(1)
}
