// Package db provides the SurrealDB persistence context and the assistant's
// collection stores.
package db

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	// WebSocket upgrade requires HTTP/1.1 semantics which fail under HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"

	// MaxAttempts bounds the startup bootstrap. Zero means DefaultMaxAttempts.
	MaxAttempts int
}

// Client is the persistence context shared by every store. It is built once
// at startup by NewClient and released with Close.
type Client struct {
	conn    *rews.Connection[*gorillaws.Connection]
	db      *surrealdb.DB
	cfg     Config
	logger  logger.Logger
	log     *slog.Logger
	metrics *metrics.Collector
}

// NewClient connects to SurrealDB, retrying with jittered exponential backoff
// until the server answers a probe or the attempt budget runs out. The last
// attempt's error is returned when every attempt fails.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	sdkLogger := logger.New(log.Handler())

	var client *Client
	attempts, err := retryConnect(ctx, newBootstrapBackOff(cfg.MaxAttempts), log, func() error {
		c, err := dial(ctx, cfg, sdkLogger)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", attempts, err)
	}

	client.log = log
	log.Info("SurrealDB connection established", "url", cfg.URL, "attempts", attempts)
	return client, nil
}

// dial performs one connection attempt: connect, authenticate, select the
// namespace and probe with INFO FOR DB.
func dial(ctx context.Context, cfg Config, sdkLogger logger.Logger) (*Client, error) {
	// Use surrealcbor for CBOR encoding/decoding (handles SurrealDB custom tags)
	codec := surrealcbor.New()

	// gorillaws wants the base URL; it appends /rpc itself
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	// Reconnects after a dropped socket once we are up
	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = bootstrapBase
	retryer.MaxDelay = bootstrapCap
	retryer.Multiplier = 2.0
	retryer.MaxRetries = DefaultMaxAttempts
	conn.Retryer = retryer

	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	if cfg.AuthLevel == "database" {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
	} else {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	c := &Client{conn: conn, db: db, cfg: cfg, logger: sdkLogger}
	if _, err := c.listTables(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("probe: %w", err)
	}
	return c, nil
}

// Close closes the SurrealDB connection.
func (c *Client) Close(ctx context.Context) error {
	c.log.Info("closing SurrealDB connection")
	return c.conn.Close(ctx)
}

// DB returns the underlying SurrealDB client for queries.
func (c *Client) DB() *surrealdb.DB {
	return c.db
}

// SetMetrics enables query timing.
func (c *Client) SetMetrics(m *metrics.Collector) {
	c.metrics = m
}

// Collection is a handle to an existing table.
type Collection struct {
	Name   string
	client *Client
}

// Count returns the number of records in the collection.
func (col *Collection) Count(ctx context.Context) (int, error) {
	return countRows(ctx, col.client, `SELECT count() AS count FROM type::table($tb) GROUP ALL`,
		map[string]any{"tb": col.Name})
}

// EnsureCollection returns a handle to the named table, creating it when it
// does not exist yet. Losing a creation race to another process counts as
// success.
func (c *Client) EnsureCollection(ctx context.Context, name string) (*Collection, error) {
	if !tableNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}

	tables, err := c.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	if _, ok := tables[name]; !ok {
		_, err := surrealdb.Query[any](ctx, c.db, fmt.Sprintf("DEFINE TABLE %s SCHEMALESS", name), nil)
		if err = wrapQueryError(err); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return nil, fmt.Errorf("create collection %s: %w", name, err)
		}
		c.log.Info("collection created", "name", name)
	}

	return &Collection{Name: name, client: c}, nil
}

func (c *Client) listTables(ctx context.Context) (map[string]any, error) {
	results, err := surrealdb.Query[map[string]any](ctx, c.db, `INFO FOR DB`, nil)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return map[string]any{}, nil
	}
	tables, _ := (*results)[0].Result["tables"].(map[string]any)
	if tables == nil {
		tables = map[string]any{}
	}
	return tables, nil
}

// InitSchema ensures every collection exists and defines indexes.
func (c *Client) InitSchema(ctx context.Context) error {
	c.log.Info("initializing database schema")
	for _, name := range Collections {
		if _, err := c.EnsureCollection(ctx, name); err != nil {
			return err
		}
	}
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	c.log.Info("schema initialization complete")
	return nil
}

// Query executes a SurrealQL query with parameters.
func (c *Client) Query(ctx context.Context, sql string, vars map[string]any) (*[]surrealdb.QueryResult[any], error) {
	return surrealdb.Query[any](ctx, c.db, sql, vars)
}

// WipeData deletes every record while keeping tables and indexes.
// Use for testing only.
func (c *Client) WipeData(ctx context.Context) error {
	c.log.Warn("wiping all data from database")
	for _, table := range append([]string{TableSimilarTo}, Collections...) {
		if _, err := surrealdb.Query[any](ctx, c.db, fmt.Sprintf("DELETE %s", table), nil); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func (c *Client) observe(start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordTiming(metrics.OpDBQuery, time.Since(start))
	}
}

// queryRows runs a single-statement query and returns its rows.
func queryRows[T any](ctx context.Context, c *Client, sql string, vars map[string]any) ([]T, error) {
	defer c.observe(time.Now())

	results, err := surrealdb.Query[[]T](ctx, c.db, sql, vars)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	if results == nil || len(*results) == 0 || (*results)[0].Result == nil {
		return []T{}, nil
	}
	return (*results)[0].Result, nil
}

type countRow struct {
	Count int `json:"count"`
}

// countRows runs a "SELECT count() AS count ... GROUP ALL" query.
func countRows(ctx context.Context, c *Client, sql string, vars map[string]any) (int, error) {
	rows, err := queryRows[countRow](ctx, c, sql, vars)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Count, nil
}
