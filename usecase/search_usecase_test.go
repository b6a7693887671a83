package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"subtube/domain/apperror"
	"subtube/domain/model"
	"subtube/usecase"
)

// Mock implementations

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upsert(ctx context.Context, records []model.VideoRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) Query(ctx context.Context, text string, page, pageSize int) (*model.ResultPage, error) {
	args := m.Called(ctx, text, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResultPage), args.Error(1)
}

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	ledger := new(MockStorage)
	index := new(MockStorage)
	uc := usecase.NewSearchUseCase(ledger, index, 10)

	for _, query := range []string{"", "   "} {
		_, err := uc.Search(context.Background(), query, usecase.SourceJSON, 1)
		var invalid *apperror.InvalidQueryError
		assert.ErrorAs(t, err, &invalid, "query %q", query)
	}
	ledger.AssertNotCalled(t, "Query")
	index.AssertNotCalled(t, "Query")
}

func TestSearch_RejectsUnknownSource(t *testing.T) {
	uc := usecase.NewSearchUseCase(new(MockStorage), new(MockStorage), 10)

	_, err := uc.Search(context.Background(), "cats", "sqlite", 1)
	var invalid *apperror.InvalidSourceError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sqlite", invalid.Source)
}

func TestSearch_RoutesToLedger(t *testing.T) {
	ledger := new(MockStorage)
	index := new(MockStorage)
	expected := &model.ResultPage{CurrentPage: 1, TotalPages: 1, TotalMatches: 1}
	ledger.On("Query", mock.Anything, "cats", 1, 10).Return(expected, nil)

	uc := usecase.NewSearchUseCase(ledger, index, 10)
	page, err := uc.Search(context.Background(), "cats", usecase.SourceJSON, 1)
	require.NoError(t, err)
	assert.Same(t, expected, page)

	ledger.AssertExpectations(t)
	index.AssertNotCalled(t, "Query")
}

func TestSearch_RoutesToIndex(t *testing.T) {
	ledger := new(MockStorage)
	index := new(MockStorage)
	expected := &model.ResultPage{CurrentPage: 2, TotalPages: 3, TotalMatches: 25}
	index.On("Query", mock.Anything, "dogs", 2, 10).Return(expected, nil)

	uc := usecase.NewSearchUseCase(ledger, index, 10)
	page, err := uc.Search(context.Background(), "dogs", usecase.SourceSolr, 2)
	require.NoError(t, err)
	assert.Same(t, expected, page)

	index.AssertExpectations(t)
	ledger.AssertNotCalled(t, "Query")
}

func TestSearch_ClampsPageToOne(t *testing.T) {
	ledger := new(MockStorage)
	ledger.On("Query", mock.Anything, "cats", 1, 10).Return(&model.ResultPage{CurrentPage: 1}, nil)

	uc := usecase.NewSearchUseCase(ledger, new(MockStorage), 10)
	_, err := uc.Search(context.Background(), "cats", usecase.SourceJSON, 0)
	require.NoError(t, err)
	_, err = uc.Search(context.Background(), "cats", usecase.SourceJSON, -5)
	require.NoError(t, err)

	ledger.AssertNumberOfCalls(t, "Query", 2)
}

func TestSearch_TrimsQueryBeforeDelegating(t *testing.T) {
	ledger := new(MockStorage)
	ledger.On("Query", mock.Anything, "cats", 1, 10).Return(&model.ResultPage{}, nil)

	uc := usecase.NewSearchUseCase(ledger, new(MockStorage), 10)
	_, err := uc.Search(context.Background(), "  cats  ", usecase.SourceJSON, 1)
	require.NoError(t, err)

	ledger.AssertExpectations(t)
}

func TestSearch_UnconfiguredBackend(t *testing.T) {
	uc := usecase.NewSearchUseCase(new(MockStorage), nil, 10)

	_, err := uc.Search(context.Background(), "cats", usecase.SourceSolr, 1)
	var unavailable *apperror.BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, usecase.SourceSolr, unavailable.Backend)
}
