package pipeline

import (
	"context"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockOracle mocks the Oracle interface
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockDoctorRepository mocks the domain.DoctorRepository interface
type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) SearchByName(ctx context.Context, name string) ([]domain.Doctor, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) SearchBySpecialty(ctx context.Context, specialty string) ([]domain.Doctor, error) {
	args := m.Called(ctx, specialty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) List(ctx context.Context, limit int) ([]domain.Doctor, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Doctor), args.Error(1)
}

// MockQueryExecutor mocks the QueryExecutor interface
type MockQueryExecutor struct {
	mock.Mock
}

func (m *MockQueryExecutor) Execute(ctx context.Context, candidate *domain.CandidateQuery) domain.ExecutionOutcome {
	args := m.Called(ctx, candidate)
	return args.Get(0).(domain.ExecutionOutcome)
}

// oracleFunc adapts a plain function to the Oracle interface
type oracleFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

func (f oracleFunc) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}
