package testhelpers

import (
	"context"

	"github.com/pageza/caltrack/web/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRDACalculator is a mock implementation of profile.RDACalculator
type MockRDACalculator struct {
	mock.Mock
}

func (m *MockRDACalculator) CalculateRDA(ctx context.Context, userID string, req models.RDARequest) (*models.RDAValues, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RDAValues), args.Error(1)
}

// MockRDAListener is a mock implementation of profile.Listener
type MockRDAListener struct {
	mock.Mock
}

func (m *MockRDAListener) RDAUpdated(userID string, values models.RDAValues) {
	m.Called(userID, values)
}

// MockNotifier is a mock implementation of tracker.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(userID string, event string) {
	m.Called(userID, event)
}
