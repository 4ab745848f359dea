package segment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// LoadAggregates reduces the orders table to one CustomerAggregate per
// customer. Cancelled orders do not count toward any dimension.
func LoadAggregates(ctx context.Context, db *sql.DB) ([]CustomerAggregate, error) {
	query, args, err := sq.Select(
		"customer_id",
		"MAX(order_date) AS last_order",
		"COUNT(*) AS order_count",
		"SUM(total_amount_jpy) AS total_spent",
	).
		From("orders").
		Where(sq.NotEq{"order_status": "cancelled"}).
		GroupBy("customer_id").
		OrderBy("customer_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregate query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load order aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []CustomerAggregate
	for rows.Next() {
		var (
			agg     CustomerAggregate
			lastRaw interface{}
			total   sql.NullString
		)
		if err := rows.Scan(&agg.CustomerID, &lastRaw, &agg.Orders, &total); err != nil {
			return nil, fmt.Errorf("failed to scan order aggregate: %w", err)
		}
		agg.LastOrder, err = toTime(lastRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid last order date for customer %d: %w", agg.CustomerID, err)
		}
		if total.Valid {
			agg.Total, err = decimal.NewFromString(total.String)
			if err != nil {
				return nil, fmt.Errorf("invalid monetary total %q for customer %d: %w", total.String, agg.CustomerID, err)
			}
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order aggregates: %w", err)
	}
	return aggs, nil
}

// toTime bridges driver differences: Postgres hands MAX(order_date)
// back as time.Time, sqlite as text.
func toTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
