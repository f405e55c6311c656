package analysis

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradeops/internal/models"
	"tradeops/internal/storage"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, limit int) ([]models.Snippet, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Snippet), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Model() string { return "mock-model" }

type failingStore struct {
	storage.ReportStore
}

func (failingStore) SaveReport(ctx context.Context, r *models.Report) error {
	return errors.New("disk full")
}

func (failingStore) ListReports(ctx context.Context, owner string) ([]*models.Report, error) {
	return nil, errors.New("disk gone")
}

func testQuery(sector string) string { return "q:" + sector }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var testSnippets = []models.Snippet{
	{Title: "Exports", Snippet: "Exports grew", Link: "https://a.test"},
	{Title: "Capacity", Snippet: "New plants", Link: "https://b.test"},
}

func newTestService(t *testing.T) (*Service, *MockSearcher, *MockGenerator, *storage.MemoryStorage) {
	t.Helper()
	searcher := &MockSearcher{}
	gen := &MockGenerator{}
	store, err := storage.NewMemoryStorage(storage.Config{})
	require.NoError(t, err)
	return NewService(searcher, testQuery, gen, store, 6, quietLogger()), searcher, gen, store
}

func TestValidateSector(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"pharmaceuticals", "pharmaceuticals", false},
		{"Technology", "technology", false},
		{"IT", "it", false},
		{"  it  ", "", true},
		{" tech", "", true},
		{"tech\n", "", true},
		{"a", "", true},
		{"", "", true},
		{"tech123", "", true},
		{"real estate", "", true},
		{"abcdefghijklmnopqrstuvwxyzabcde", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ValidateSector(tt.raw)
			if tt.wantErr {
				var se *ServiceError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusBadRequest, se.StatusCode)
				assert.Contains(t, se.Message, "Invalid sector parameter. Sector must be 2-30 alphabetic characters. Error: ")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Analyze(t *testing.T) {
	svc, searcher, gen, store := newTestService(t)
	ctx := context.Background()

	searcher.On("Search", ctx, "q:pharma", 6).Return(testSnippets, nil)
	gen.On("Generate", ctx, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "'pharma' sector") &&
			strings.Contains(p, "Source 2: Capacity. New plants. Link: https://b.test")
	})).Return("# Pharma report\n", nil)

	resp, err := svc.Analyze(ctx, "alice", "Pharma")
	require.NoError(t, err)

	assert.Equal(t, "pharma", resp.Sector)
	assert.Equal(t, "# Pharma report\n", resp.ReportMarkdown)
	assert.Equal(t, "mock-model", resp.Model)
	assert.Equal(t, 2, resp.Sources)
	assert.False(t, resp.GeneratedAt.IsZero())
	require.NotEmpty(t, resp.ReportID)

	archived, err := store.GetReport(ctx, resp.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "alice", archived.Owner)
	assert.Equal(t, "# Pharma report", archived.Markdown)

	searcher.AssertExpectations(t)
	gen.AssertExpectations(t)
}

func TestService_Analyze_InvalidSectorSkipsUpstream(t *testing.T) {
	svc, searcher, gen, _ := newTestService(t)

	_, err := svc.Analyze(context.Background(), "alice", "tech123")

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestService_Analyze_CollectionFailure(t *testing.T) {
	svc, searcher, gen, _ := newTestService(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.Canceled)

	_, err := svc.Analyze(context.Background(), "alice", "it")

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "Failed to collect market data", se.Message)
	assert.ErrorIs(t, err, context.Canceled)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestService_Analyze_EmptyCollectionStillGenerates(t *testing.T) {
	svc, searcher, gen, _ := newTestService(t)
	searcher.On("Search", mock.Anything, "q:it", 6).Return([]models.Snippet{}, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return("# IT", nil)

	resp, err := svc.Analyze(context.Background(), "alice", "it")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Sources)
}

func TestService_Analyze_GenerationFailure(t *testing.T) {
	svc, searcher, gen, store := newTestService(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(testSnippets, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := svc.Analyze(context.Background(), "alice", "it")

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "LLM analysis failed", se.Message)
	assert.Equal(t, models.ErrorCodeUpstreamFailure, se.Code)

	reports, _ := store.ListReports(context.Background(), "alice")
	assert.Empty(t, reports)
}

func TestService_Analyze_ArchiveFailureIsNotFatal(t *testing.T) {
	searcher := &MockSearcher{}
	gen := &MockGenerator{}
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(testSnippets, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return("# Report", nil)

	svc := NewService(searcher, testQuery, gen, failingStore{}, 6, quietLogger())

	resp, err := svc.Analyze(context.Background(), "alice", "it")
	require.NoError(t, err)
	assert.Equal(t, "# Report", resp.ReportMarkdown)
	assert.Empty(t, resp.ReportID)
}

func TestService_Reports(t *testing.T) {
	svc, searcher, gen, _ := newTestService(t)
	ctx := context.Background()
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(testSnippets, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return("# Report", nil)

	first, err := svc.Analyze(ctx, "alice", "it")
	require.NoError(t, err)
	_, err = svc.Analyze(ctx, "bob", "banking")
	require.NoError(t, err)

	list, err := svc.Reports(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, list.TotalCount)
	assert.Equal(t, first.ReportID, list.Reports[0].ID)
	assert.Equal(t, "it", list.Reports[0].Sector)

	got, err := svc.Report(ctx, "alice", first.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "# Report", got.Markdown)

	_, err = svc.Report(ctx, "bob", first.ReportID)
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	_, err = svc.Report(ctx, "alice", "missing")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestService_Reports_StoreFailure(t *testing.T) {
	svc := NewService(&MockSearcher{}, testQuery, &MockGenerator{}, failingStore{}, 6, quietLogger())

	_, err := svc.Reports(context.Background(), "alice")
	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestService_NoArchive(t *testing.T) {
	svc := NewService(&MockSearcher{}, testQuery, &MockGenerator{}, nil, 6, quietLogger())

	list, err := svc.Reports(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, list.Reports)

	_, err = svc.Report(context.Background(), "alice", "x")
	assert.Error(t, err)
}

func TestServiceError(t *testing.T) {
	inner := errors.New("boom")
	err := NewGenerationError(inner)
	assert.Equal(t, "LLM analysis failed: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "report not found", NewNotFoundError("report not found").Error())
}
