package mocks

import (
	"context"

	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/stretchr/testify/mock"
)

// CrisisRepository is a mock for crisis.Repository.
type CrisisRepository struct {
	mock.Mock
}

func (m *CrisisRepository) Get(ctx context.Context, id uint64) (*crisis.Update, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*crisis.Update); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CrisisRepository) Put(ctx context.Context, rec *crisis.Update) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *CrisisRepository) Remove(ctx context.Context, id uint64) (*crisis.Update, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*crisis.Update); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CrisisRepository) Scan(ctx context.Context) ([]crisis.Update, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]crisis.Update); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CrisisRepository) IsEmpty(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *CrisisRepository) Last(ctx context.Context) (*crisis.Update, error) {
	args := m.Called(ctx)
	if rec, ok := args.Get(0).(*crisis.Update); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

// IDAllocator is a mock for crisis.IDAllocator.
type IDAllocator struct {
	mock.Mock
}

func (m *IDAllocator) NextID(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

// Clock is a mock for crisis.Clock.
type Clock struct {
	mock.Mock
}

func (m *Clock) Now() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}
