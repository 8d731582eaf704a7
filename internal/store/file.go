package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/saga/internal/models"
)

const (
	stateFile   = "state.yaml"
	historyFile = "history.yaml"
)

// FileStore keeps each session in its own directory: state.yaml holds the
// document and history.yaml its snapshots.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) Save(_ context.Context, name string, s *models.State) error {
	if err := checkName(name); err != nil {
		return err
	}
	dir := filepath.Join(f.dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	snap := s.Snapshot()
	stateData, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	historyData, err := yaml.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	// History first so a session is never listed with a stale history.
	if err := writeFile(filepath.Join(dir, historyFile), historyData); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, stateFile), stateData)
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context, name string) (*models.State, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(f.dir, name)

	stateData, err := os.ReadFile(filepath.Join(dir, stateFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var s models.State
	if err := yaml.Unmarshal(stateData, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}

	historyData, err := os.ReadFile(filepath.Join(dir, historyFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(historyData) > 0 {
		if err := yaml.Unmarshal(historyData, &s.History); err != nil {
			return nil, fmt.Errorf("parse history: %w", err)
		}
	}
	return &s, nil
}

func (f *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save dir: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// state.yaml marks a saved session.
		if _, err := os.Stat(filepath.Join(f.dir, entry.Name(), stateFile)); err == nil {
			sessions = append(sessions, entry.Name())
		}
	}
	sort.Strings(sessions)
	return sessions, nil
}

func (f *FileStore) Close() error { return nil }
