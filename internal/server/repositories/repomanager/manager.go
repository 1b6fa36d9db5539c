// Package repomanager opens the users store selected by configuration.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/userreg/internal/server/config"
	"github.com/dmitrijs2005/userreg/internal/server/repositories/users"
)

// RepositoryManager owns the store connection for the lifetime of the
// process and vends the users repository bound to it.
type RepositoryManager interface {
	Users() users.Repository
	Close() error
}

// New opens the backend named by cfg.StoreBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		return NewDynamoRepositoryManager(ctx, cfg)
	case config.StorePostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.StoreMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// MemoryRepositoryManager holds a process-local store.
type MemoryRepositoryManager struct {
	repo *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository { return m.repo }

func (m *MemoryRepositoryManager) Close() error { return nil }
