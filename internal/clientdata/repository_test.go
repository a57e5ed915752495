package clientdata

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	testingpkg "github.com/aristath/portfolio-monitor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedSeries struct {
	Ticker string
	Closes []float64
	AsOf   time.Time
}

func setupTestDB(t *testing.T) *sql.DB {
	return testingpkg.NewTestDB(t).Conn()
}

// clock lets a test move the repository's notion of now.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestRepo(t *testing.T) (*Repository, *clock) {
	c := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewRepository(setupTestDB(t))
	repo.now = c.now
	return repo, c
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo, _ := newTestRepo(t)

	in := cachedSeries{Ticker: "AAPL", Closes: []float64{190.5, 191.25}, AsOf: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Store(TablePriceHistory, "AAPL|2024-01-01|2024-05-31", in, time.Hour))

	var out cachedSeries
	found, err := repo.GetIfFresh(TablePriceHistory, "AAPL|2024-01-01|2024-05-31", &out)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, in.Ticker, out.Ticker)
	assert.Equal(t, in.Closes, out.Closes)
	assert.True(t, in.AsOf.Equal(out.AsOf))
}

func TestStore_Upserts(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Store(TableCurrentPrices, "MSFT", 410.0, time.Hour))
	require.NoError(t, repo.Store(TableCurrentPrices, "MSFT", 415.5, time.Hour))

	var price float64
	found, err := repo.GetIfFresh(TableCurrentPrices, "MSFT", &price)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 415.5, price)

	n, err := repo.Count(TableCurrentPrices)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetIfFresh_Expired(t *testing.T) {
	repo, c := newTestRepo(t)

	require.NoError(t, repo.Store(TableCurrentPrices, "NVDA", 120.0, time.Minute))
	c.t = c.t.Add(2 * time.Minute)

	var price float64
	found, err := repo.GetIfFresh(TableCurrentPrices, "NVDA", &price)
	require.NoError(t, err)
	assert.False(t, found)

	// Stale fallback still returns it
	found, err = repo.Get(TableCurrentPrices, "NVDA", &price)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 120.0, price)
}

func TestGet_Missing(t *testing.T) {
	repo, _ := newTestRepo(t)

	var price float64
	found, err := repo.Get(TableCurrentPrices, "NOPE", &price)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_CorruptEntry(t *testing.T) {
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.Store(TableCurrentPrices, "AAPL", "not a price", time.Hour))

	var price float64
	found, err := repo.Get(TableCurrentPrices, "AAPL", &price)
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(err, ErrCorruptEntry))
}

func TestInvalidTable(t *testing.T) {
	repo, _ := newTestRepo(t)

	var out float64
	assert.Error(t, repo.Store("users; DROP TABLE x", "k", 1, time.Hour))
	_, err := repo.GetIfFresh("bogus", "k", &out)
	assert.Error(t, err)
	_, err = repo.Get("bogus", "k", &out)
	assert.Error(t, err)
	assert.Error(t, repo.Delete("bogus", "k"))
	_, err = repo.DeleteExpired("bogus")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Store(TableCurrentPrices, "SAP.DE", 180.0, time.Hour))
	require.NoError(t, repo.Delete(TableCurrentPrices, "SAP.DE"))

	var price float64
	found, err := repo.Get(TableCurrentPrices, "SAP.DE", &price)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAllExpired(t *testing.T) {
	repo, c := newTestRepo(t)

	require.NoError(t, repo.Store(TableCurrentPrices, "A", 1.0, time.Minute))
	require.NoError(t, repo.Store(TableCurrentPrices, "B", 2.0, 24*time.Hour))
	require.NoError(t, repo.Store(TablePriceHistory, "A|x|y", []float64{1}, time.Minute))

	c.t = c.t.Add(time.Hour)

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableCurrentPrices])
	assert.Equal(t, int64(1), results[TablePriceHistory])

	n, err := repo.Count(TableCurrentPrices)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCleanupJob(t *testing.T) {
	repo, c := newTestRepo(t)
	job := NewCleanupJob(repo, zerolog.New(nil).Level(zerolog.Disabled))

	assert.Equal(t, "price_cache_cleanup", job.Name())

	require.NoError(t, repo.Store(TableCurrentPrices, "A", 1.0, time.Minute))
	c.t = c.t.Add(time.Hour)

	require.NoError(t, job.Run())

	n, err := repo.Count(TableCurrentPrices)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
