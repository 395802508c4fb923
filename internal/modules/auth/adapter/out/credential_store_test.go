package out_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authout "todoterm/internal/modules/auth/adapter/out"
	"todoterm/internal/modules/auth/domain"
	authport "todoterm/internal/modules/auth/port/out"
	"todoterm/internal/platform/clock"
	apperrors "todoterm/internal/platform/errors"
)

const origin = "http://localhost:8080"

func exerciseStore(t *testing.T, store authport.CredentialStore) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Get(ctx); !errors.Is(err, apperrors.ErrNoCredential) {
		t.Fatalf("empty store should report no credential, got %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
	if err := store.Set(ctx, "stale"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "abc123"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != domain.Credential("abc123") {
		t.Fatalf("expected abc123, got %q", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := store.Get(ctx); !errors.Is(err, apperrors.ErrNoCredential) {
		t.Fatalf("cleared store should be empty, got %v", err)
	}
}

func TestSQLiteCredentialStore(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "state", "todoterm.db")
	store, err := authout.NewSQLiteCredentialStore(dbPath, origin, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteCredentialStoreIsScopedByOrigin(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "todoterm.db")
	a, err := authout.NewSQLiteCredentialStore(dbPath, origin, nil)
	if err != nil {
		t.Fatalf("new store a: %v", err)
	}
	defer a.Close()
	if err := a.Set(context.Background(), "abc123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := authout.NewSQLiteCredentialStore(dbPath, "https://todo.example.com", nil)
	if err != nil {
		t.Fatalf("new store b: %v", err)
	}
	defer b.Close()
	if _, err := b.Get(context.Background()); !errors.Is(err, apperrors.ErrNoCredential) {
		t.Fatalf("other origin must not see the credential, got %v", err)
	}
}

func TestFileCredentialStore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := authout.NewFileCredentialStore(dir, origin, nil)
	exerciseStore(t, store)

	if err := store.Set(context.Background(), "abc123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if filepath.Base(store.Path()) != "http-localhost-8080.json" {
		t.Fatalf("unexpected credential file %s", store.Path())
	}
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("credential file must be private, got %v", info.Mode().Perm())
	}

	reopened := authout.NewFileCredentialStore(dir, origin, nil)
	if got, err := reopened.Get(context.Background()); err != nil || got != "abc123" {
		t.Fatalf("reopened store: %q %v", got, err)
	}
}

func TestFileCredentialStoreCorruptFile(t *testing.T) {
	t.Parallel()
	store := authout.NewFileCredentialStore(t.TempDir(), origin, nil)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Get(context.Background()); err == nil || errors.Is(err, apperrors.ErrNoCredential) {
		t.Fatalf("corrupt file should surface a read error, got %v", err)
	}
}

func TestCredentialStoresStampUpdatedAtFromClock(t *testing.T) {
	t.Parallel()
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := context.Background()

	file := authout.NewFileCredentialStore(t.TempDir(), origin, clock.Fixed(stamp))
	if err := file.Set(ctx, "abc123"); err != nil {
		t.Fatalf("file set: %v", err)
	}
	payload, err := os.ReadFile(file.Path())
	if err != nil {
		t.Fatalf("read credential file: %v", err)
	}
	var record struct {
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(payload, &record); err != nil {
		t.Fatalf("decode credential file: %v", err)
	}
	if !record.UpdatedAt.Equal(stamp) {
		t.Fatalf("file updated_at: got %v, want %v", record.UpdatedAt, stamp)
	}

	dbPath := filepath.Join(t.TempDir(), "todoterm.db")
	store, err := authout.NewSQLiteCredentialStore(dbPath, origin, clock.Fixed(stamp))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer store.Close()
	if err := store.Set(ctx, "abc123"); err != nil {
		t.Fatalf("sqlite set: %v", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var updatedAt string
	if err := db.QueryRowContext(ctx, `SELECT updated_at FROM credentials WHERE origin = ?`, origin).Scan(&updatedAt); err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	if updatedAt != "2024-03-01T09:30:00Z" {
		t.Fatalf("sqlite updated_at: %q", updatedAt)
	}
}

func TestRedisCredentialStore(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	store, err := authout.NewRedisCredentialStore(context.Background(), "redis://"+mr.Addr(), origin)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)

	if err := store.Set(context.Background(), "abc123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("todoterm:" + origin + ":token")
	if err != nil || got != "abc123" {
		t.Fatalf("unexpected redis layout: %q %v", got, err)
	}
}

func TestRedisCredentialStoreUnreachable(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := authout.NewRedisCredentialStoreFromClient(client, origin)
	defer store.Close()
	addr := mr.Addr()
	mr.Close()
	if _, err := store.Get(context.Background()); err == nil || errors.Is(err, apperrors.ErrNoCredential) {
		t.Fatalf("expected read error, got %v", err)
	}
	if _, err := authout.NewRedisCredentialStore(context.Background(), "redis://"+addr, origin); err == nil {
		t.Fatalf("expected ping failure")
	}
}
