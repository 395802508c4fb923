package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"todoterm/internal/modules/auth/domain"
	"todoterm/internal/platform/clock"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/platform/slug"
)

// FileCredentialStore writes the credential of one origin to its own JSON
// file, readable by the current user only.
type FileCredentialStore struct {
	path   string
	origin string
	clock  clock.Clock
}

type credentialFile struct {
	Origin    string    `json:"origin"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewFileCredentialStore(dataDir, origin string, clk clock.Clock) *FileCredentialStore {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &FileCredentialStore{
		path:   filepath.Join(dataDir, "credentials", slug.Make(origin, "default")+".json"),
		origin: origin,
		clock:  clk,
	}
}

func (s *FileCredentialStore) Path() string { return s.path }

func (s *FileCredentialStore) Get(_ context.Context) (domain.Credential, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.ErrNoCredential
		}
		return "", fmt.Errorf("read credential: %w", err)
	}
	var record credentialFile
	if err := json.Unmarshal(payload, &record); err != nil {
		return "", fmt.Errorf("decode credential: %w", err)
	}
	credential := domain.Credential(record.Value)
	if record.Origin != s.origin || record.Key != domain.TokenKey || !credential.Present() {
		return "", apperrors.ErrNoCredential
	}
	return credential, nil
}

func (s *FileCredentialStore) Set(_ context.Context, credential domain.Credential) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	payload, err := json.MarshalIndent(credentialFile{
		Origin:    s.origin,
		Key:       domain.TokenKey,
		Value:     string(credential),
		UpdatedAt: s.clock.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("create temp credential: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod credential: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credential: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
