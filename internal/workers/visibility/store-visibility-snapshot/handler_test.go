package storevisibilitysnapshot

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"visibility-workers/internal/common/database"
	commonerrors "visibility-workers/internal/common/errors"
	"visibility-workers/internal/common/logger"
	"visibility-workers/internal/models"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		SnapshotIndex: "visibility-snapshots",
		CacheTTL:      15 * time.Minute,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// fakeESTransport records index requests and answers like Elasticsearch.
type fakeESTransport struct {
	requests []*http.Request
	status   int
}

func (tr *fakeESTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tr.requests = append(tr.requests, req)
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: tr.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(`{"result":"created"}`)),
	}, nil
}

func createTestES(t *testing.T, status int) (*database.ElasticsearchClient, *fakeESTransport) {
	transport := &fakeESTransport{status: status}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://elasticsearch:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return &database.ElasticsearchClient{Client: client}, transport
}

func pinIdentity(h *Handler) {
	h.newID = func() string { return "snap-1" }
	h.now = func() time.Time { return time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC) }
}

func snapshotInput() *Input {
	return &Input{
		ProjectID:    "project-1",
		KeywordID:    "keyword-1",
		LookbackDays: 7,
		BrandRankings: []models.BrandRanking{
			{Rank: 1, Name: "Acme", Domain: "acme.com", ShareOfVoice: 100, IsOwnBrand: true},
		},
		SourceRows: []models.SourceRow{
			{Rank: 1, Domain: "review-site.com", URL: "https://review-site.com/best", MentionRate: 100},
		},
		Summary: models.VisibilitySummary{TotalProviders: 2, ProvidersWithOwnBrandMention: 2, BestOwnBrandPosition: 1, TotalCitationsAcrossProviders: 2},
	}
}

func TestHandler_Execute_StoresIndexesAndCaches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO visibility_snapshots`).
		WithArgs("snap-1", "project-1", "keyword-1", 7,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"2026-08-21T12:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	esClient, transport := createTestES(t, http.StatusCreated)

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.Regexp().
		ExpectSet("visibility:snapshot:project-1:keyword-1", `.+`, 15*time.Minute).
		SetVal("OK")

	handler := NewHandler(createTestConfig(), db, esClient, redisClient, createTestLogger(t))
	pinIdentity(handler)

	output, err := handler.Execute(context.Background(), snapshotInput())
	require.NoError(t, err)

	assert.Equal(t, "snap-1", output.SnapshotID)
	assert.Equal(t, "2026-08-21T12:00:00Z", output.CreatedAt)
	assert.True(t, output.Indexed)

	require.Len(t, transport.requests, 1)
	assert.Equal(t, "PUT", transport.requests[0].Method)
	assert.Contains(t, transport.requests[0].URL.Path, "/visibility-snapshots/_doc/snap-1")

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_IndexFailureIsNotFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO visibility_snapshots`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	esClient, _ := createTestES(t, http.StatusServiceUnavailable)

	handler := NewHandler(createTestConfig(), db, esClient, nil, createTestLogger(t))
	pinIdentity(handler)

	output, err := handler.Execute(context.Background(), snapshotInput())
	require.NoError(t, err)

	assert.Equal(t, "snap-1", output.SnapshotID)
	assert.False(t, output.Indexed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO visibility_snapshots`).
		WillReturnError(assert.AnError)

	handler := NewHandler(createTestConfig(), db, nil, nil, createTestLogger(t))
	pinIdentity(handler)

	_, err = handler.Execute(context.Background(), snapshotInput())
	require.Error(t, err)

	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeSnapshotStoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_MissingIdentifiers(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, nil, nil, createTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{ProjectID: "project-1"})
	require.Error(t, err)

	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeBusinessRule, stdErr.Code)
}

func TestHandler_Execute_CacheFailureIsNotFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO visibility_snapshots`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	redisClient, redisMock := redismock.NewClientMock()
	redisMock.Regexp().
		ExpectSet("visibility:snapshot:project-1:keyword-1", `.+`, 15*time.Minute).
		SetErr(assert.AnError)

	handler := NewHandler(createTestConfig(), db, nil, redisClient, createTestLogger(t))
	pinIdentity(handler)

	output, err := handler.Execute(context.Background(), snapshotInput())
	require.NoError(t, err)
	assert.Equal(t, "snap-1", output.SnapshotID)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
