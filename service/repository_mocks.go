package service

import (
	"context"

	"wordler/models"

	"github.com/stretchr/testify/mock"
)

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Load(ctx context.Context) (*models.StatsDocument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatsDocument), args.Error(1)
}

func (m *MockStatsRepository) Save(ctx context.Context, doc *models.StatsDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
