package segment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func agg(id int64, last string, orders int, total int64) CustomerAggregate {
	return CustomerAggregate{
		CustomerID: id,
		LastOrder:  day(last),
		Orders:     orders,
		Total:      decimal.NewFromInt(total),
	}
}

func TestScoreQuartiles(t *testing.T) {
	at := day("2026-01-01")
	aggs := []CustomerAggregate{
		agg(1, "2025-12-20", 9, 9_000_000), // recent, frequent, big
		agg(2, "2025-10-01", 6, 4_000_000),
		agg(3, "2025-06-01", 3, 2_000_000),
		agg(4, "2024-09-01", 1, 300_000), // long gone, one cheap order
	}

	results := Score(aggs, at)
	require.Len(t, results, 4)

	best, worst := results[0], results[3]
	assert.Equal(t, 4, best.Recency)
	assert.Equal(t, 4, best.Frequency)
	assert.Equal(t, 4, best.Monetary)
	assert.Equal(t, "Champions", best.Label)

	assert.Equal(t, 1, worst.Recency)
	assert.Equal(t, 1, worst.Frequency)
	assert.Equal(t, 1, worst.Monetary)
	assert.Equal(t, "Hibernating", worst.Label)
}

func TestScoreIsDeterministic(t *testing.T) {
	at := day("2026-01-01")
	aggs := []CustomerAggregate{
		agg(1, "2025-12-20", 9, 9_000_000),
		agg(2, "2025-10-01", 6, 4_000_000),
		agg(3, "2025-06-01", 3, 2_000_000),
	}

	first := Score(aggs, at)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Score(aggs, at))
	}
}

func TestScoreTiesShareAScore(t *testing.T) {
	at := day("2026-01-01")
	aggs := []CustomerAggregate{
		agg(1, "2025-12-01", 5, 1_000_000),
		agg(2, "2025-12-01", 5, 1_000_000),
		agg(3, "2025-12-01", 5, 1_000_000),
		agg(4, "2025-12-01", 5, 1_000_000),
	}

	results := Score(aggs, at)
	for _, res := range results[1:] {
		assert.Equal(t, results[0].Recency, res.Recency)
		assert.Equal(t, results[0].Frequency, res.Frequency)
		assert.Equal(t, results[0].Monetary, res.Monetary)
		assert.Equal(t, results[0].Label, res.Label)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	assert.Nil(t, Score(nil, time.Now()))
}

func TestLoadAggregates(t *testing.T) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE orders (
			order_id INTEGER PRIMARY KEY,
			customer_id INTEGER NOT NULL,
			order_date TIMESTAMP NOT NULL,
			total_amount_jpy INTEGER NOT NULL,
			order_status TEXT NOT NULL
		);
	`)
	require.NoError(t, err)

	insert := func(customer int, date string, amount int, status string) {
		_, err := db.Exec(
			"INSERT INTO orders (customer_id, order_date, total_amount_jpy, order_status) VALUES (?, ?, ?, ?)",
			customer, day(date), amount, status,
		)
		require.NoError(t, err)
	}
	insert(1, "2025-11-01", 1_500_000, "completed")
	insert(1, "2025-12-15", 2_000_000, "completed")
	insert(1, "2025-12-20", 5_000_000, "cancelled")
	insert(2, "2025-08-05", 900_000, "shipped")

	aggs, err := LoadAggregates(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, aggs, 2)

	assert.Equal(t, int64(1), aggs[0].CustomerID)
	assert.Equal(t, 2, aggs[0].Orders)
	assert.True(t, aggs[0].Total.Equal(decimal.NewFromInt(3_500_000)))
	assert.True(t, aggs[0].LastOrder.Equal(day("2025-12-15")), "last order was %v", aggs[0].LastOrder)

	assert.Equal(t, int64(2), aggs[1].CustomerID)
	assert.Equal(t, 1, aggs[1].Orders)
}
