package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(bookingID uuid.UUID) {
	m.Called(bookingID)
}
