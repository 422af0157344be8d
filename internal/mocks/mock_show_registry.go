package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/quickshow/booking-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShowRegistry struct {
	mock.Mock
}

func (m *MockShowRegistry) GetById(ctx context.Context, showID uuid.UUID) (*domain.Show, error) {
	args := m.Called(ctx, showID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Show), args.Error(1)
}

func (m *MockShowRegistry) ClaimSeats(ctx context.Context, showID uuid.UUID, userID string, seats []string) error {
	args := m.Called(ctx, showID, userID, seats)
	return args.Error(0)
}

func (m *MockShowRegistry) ReleaseSeats(ctx context.Context, showID uuid.UUID, seats []string) error {
	args := m.Called(ctx, showID, seats)
	return args.Error(0)
}
