package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/aevon-lab/tracelens/internal/core/storage/duckdb"
	"github.com/aevon-lab/tracelens/internal/core/storage/memory"
	"github.com/aevon-lab/tracelens/internal/core/storage/postgres"
	"github.com/aevon-lab/tracelens/internal/migrations"
)

// ErrInvalidTarget is returned for a connection target that cannot name a store.
var ErrInvalidTarget = errors.New("invalid connection target")

// Store kinds.
const (
	KindPostgres = "postgres"
	KindDuckDB   = "duckdb"
	KindMemory   = "memory"
)

// Settings configure how targets are opened.
type Settings struct {
	Kind           string
	DSN            string
	Path           string
	Collection     string
	MaxOpenConns   int
	MaxIdleConns   int
	AutoMigrate    bool
	ConnectTimeout time.Duration
}

// NewOpener returns the Opener for the configured store kind.
// A memory store is shared by every target.
func NewOpener(s Settings, shared *memory.Store) (Opener, error) {
	switch s.Kind {
	case KindPostgres:
		return func(ctx context.Context, t Target) (storage.DocumentStore, error) {
			return openPostgres(ctx, s, t)
		}, nil
	case KindDuckDB:
		return func(ctx context.Context, t Target) (storage.DocumentStore, error) {
			path, err := DuckDBPath(s.Path, t)
			if err != nil {
				return nil, err
			}
			return duckdb.OpenFile(ctx, path, s.Collection)
		}, nil
	case KindMemory:
		if shared == nil {
			shared = memory.New()
		}
		return func(context.Context, Target) (storage.DocumentStore, error) {
			return sharedStore{shared}, nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported store kind %q", s.Kind)
}

// sharedStore keeps pool eviction from closing the process-wide memory store.
type sharedStore struct {
	*memory.Store
}

func (sharedStore) Close() error { return nil }

func openPostgres(ctx context.Context, s Settings, t Target) (storage.DocumentStore, error) {
	dsn, err := OverrideDSN(s.DSN, t)
	if err != nil {
		return nil, err
	}

	if s.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ConnectTimeout)
		defer cancel()
	}

	if s.AutoMigrate {
		if err := migrate(ctx, dsn); err != nil {
			return nil, err
		}
	}
	return postgres.NewAdapter(ctx, dsn, s.MaxOpenConns, s.MaxIdleConns)
}

func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: failed to ping postgres database: %v", storage.ErrUnreachable, err)
	}
	if err := migrations.RunMigrations(db, true); err != nil {
		return fmt.Errorf("failed to migrate target: %w", err)
	}
	return nil
}

// OverrideDSN points a URL-form PostgreSQL DSN at the target. Empty target
// fields keep the DSN's own host, port, or database.
func OverrideDSN(dsn string, t Target) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", fmt.Errorf("store.dsn must be a postgres:// URL")
	}

	host, port := u.Hostname(), u.Port()
	if t.Host != "" {
		host = t.Host
	}
	if t.Port > 0 {
		port = strconv.Itoa(t.Port)
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}
	if t.DB != "" {
		u.Path = "/" + t.DB
	}
	return u.String(), nil
}

// DuckDBPath resolves the NDJSON file of a target. A directory holds one
// "<db>.ndjson" export per database; a file path is used as is. Database
// names that would leave the directory are rejected with ErrInvalidTarget.
func DuckDBPath(base string, t Target) (string, error) {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return base, nil
	}
	name := strings.TrimSpace(t.DB)
	if name == "" {
		slog.Warn("[Pool] No database named for directory store path", "path", base)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: database name %q", ErrInvalidTarget, t.DB)
	}
	return filepath.Join(base, name+".ndjson"), nil
}
