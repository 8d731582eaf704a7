// Package store persists session documents under a name.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tatianab/saga/internal/models"
)

var (
	// ErrNotFound indicates no session is saved under the name.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidName indicates a name that cannot be used as a session key.
	ErrInvalidName = errors.New("invalid session name")
)

// Store saves and loads session documents, history included.
type Store interface {
	Save(ctx context.Context, name string, s *models.State) error
	Load(ctx context.Context, name string) (*models.State, error)
	// List returns saved session names in lexical order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
