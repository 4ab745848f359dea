package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// cacheSchema is the embedded cache store. This is the cache's own
// table, not part of the seeded target schema.
const cacheSchema = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address_key TEXT PRIMARY KEY,
		latitude REAL,
		longitude REAL,
		found INTEGER NOT NULL,
		fetched_at TIMESTAMP NOT NULL
	);
`

// Result is what a lookup yields: a coordinate, or a cached
// "not found" verdict (Found == false).
type Result struct {
	Coordinate Coordinate
	Found      bool
	FetchedAt  time.Time
}

// Options bound the retry policy for provider calls.
type Options struct {
	MaxRetries  int           // retries after the first attempt
	BackoffBase time.Duration // doubled per retry
}

// Cache is the sole gate to the geocoding provider: a persistent
// cache-aside layer over a local sqlite store. Safe for concurrent use;
// reads share, writes serialize, and provider calls happen outside the
// lock so a miss never blocks hits for already-cached addresses.
type Cache struct {
	db       *sql.DB
	provider Provider
	opts     Options
	mu       sync.RWMutex
}

// Open opens (creating if needed) the cache store at path and wires it
// to the provider. Use ":memory:" for tests.
func Open(path string, provider Provider, opts Options) (*Cache, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}
	// sqlite allows one writer; a single connection keeps the in-memory
	// variant coherent too.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize geocode cache: %w", err)
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}

	return &Cache{db: db, provider: provider, opts: opts}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// NormalizeKey case-folds and collapses whitespace so trivially
// different spellings share one cache entry.
func NormalizeKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Lookup returns the cached result for the address, consulting the
// provider only on a miss. Transient provider failures are retried with
// exponential backoff up to the configured bound; if they exhaust, a
// GeocodeUnavailableError surfaces and nothing is cached.
func (c *Cache) Lookup(ctx context.Context, address string) (Result, error) {
	key := NormalizeKey(address)
	if key == "" {
		return Result{}, ErrEmptyAddress
	}

	if res, ok, err := c.get(key); err != nil {
		return Result{}, err
	} else if ok {
		return res, nil
	}

	coord, err := c.resolve(ctx, address)
	switch {
	case err == nil:
		res := Result{Coordinate: coord, Found: true, FetchedAt: time.Now().UTC()}
		if err := c.put(key, res); err != nil {
			return Result{}, err
		}
		return res, nil
	case errors.Is(err, ErrAddressNotFound):
		// Permanent verdict: cache it so the provider is never re-asked.
		res := Result{Found: false, FetchedAt: time.Now().UTC()}
		if err := c.put(key, res); err != nil {
			return Result{}, err
		}
		return res, nil
	default:
		return Result{}, err
	}
}

// Invalidate removes one entry. This is the explicit administrative
// path to re-query an address previously marked not found; lookups
// never expire entries on their own.
func (c *Cache) Invalidate(address string) error {
	key := NormalizeKey(address)

	query, args, err := sq.Delete("geocode_cache").Where(sq.Eq{"address_key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build invalidate query: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to invalidate %q: %w", key, err)
	}
	return nil
}

// resolve calls the provider with bounded exponential backoff on
// transient failures. ErrAddressNotFound propagates immediately: it is
// an answer, not an outage.
func (c *Cache) resolve(ctx context.Context, address string) (Coordinate, error) {
	attempts := c.opts.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.opts.BackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return Coordinate{}, &GeocodeUnavailableError{Address: address, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		coord, err := c.provider.Geocode(ctx, address)
		if err == nil {
			return coord, nil
		}
		if errors.Is(err, ErrAddressNotFound) {
			return Coordinate{}, err
		}
		if ctx.Err() != nil {
			return Coordinate{}, &GeocodeUnavailableError{Address: address, Attempts: attempt + 1, Err: ctx.Err()}
		}
		lastErr = err
	}

	return Coordinate{}, &GeocodeUnavailableError{Address: address, Attempts: attempts, Err: lastErr}
}

func (c *Cache) get(key string) (Result, bool, error) {
	query, args, err := sq.Select("latitude", "longitude", "found", "fetched_at").
		From("geocode_cache").
		Where(sq.Eq{"address_key": key}).
		ToSql()
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to build cache query: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		lat, lon sql.NullFloat64
		found    bool
		fetched  time.Time
	)
	err = c.db.QueryRow(query, args...).Scan(&lat, &lon, &found, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to read geocode cache: %w", err)
	}

	res := Result{Found: found, FetchedAt: fetched}
	if found {
		res.Coordinate = Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return res, true, nil
}

func (c *Cache) put(key string, res Result) error {
	var lat, lon interface{}
	if res.Found {
		lat, lon = res.Coordinate.Latitude, res.Coordinate.Longitude
	}

	// One entry per key: later writes overwrite earlier ones.
	query, args, err := sq.Insert("geocode_cache").
		Columns("address_key", "latitude", "longitude", "found", "fetched_at").
		Values(key, lat, lon, res.Found, res.FetchedAt).
		Suffix("ON CONFLICT(address_key) DO UPDATE SET latitude=excluded.latitude, longitude=excluded.longitude, found=excluded.found, fetched_at=excluded.fetched_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cache upsert: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to write geocode cache: %w", err)
	}
	return nil
}
