package services

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/cryptox"
	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/models"
	"github.com/stretchr/testify/require"
)

// recordingStore is an in-memory users.Repository that records every call
// and can be told to fail.
type recordingStore struct {
	mu    sync.Mutex
	users map[string]models.User
	calls []string

	getErr    error
	createErr error
	deleteErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{users: map[string]models.User{}}
}

func (s *recordingStore) Get(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "get:"+email)
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (s *recordingStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "create:"+user.Email)
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.users[user.Email]; ok {
		return common.ErrorAlreadyExists
	}
	s.users[user.Email] = *user
	return nil
}

func (s *recordingStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete:"+email)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.users, email)
	return nil
}

func (s *recordingStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// countingHasher wraps a real hasher and counts Verify calls.
type countingHasher struct {
	cryptox.Hasher
	mu       sync.Mutex
	verifies int
	hashErr  error
}

func (h *countingHasher) Hash(ctx context.Context, password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.Hasher.Hash(ctx, password)
}

func (h *countingHasher) Verify(ctx context.Context, password, digest string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.Hasher.Verify(ctx, password, digest)
}

func (h *countingHasher) Verifies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

func newHasher(t *testing.T) *countingHasher {
	t.Helper()
	h, err := cryptox.NewScryptHasher(cryptox.ScryptParams{LogN: 4, R: 8, P: 1, SaltLen: 16, KeyLen: 32})
	require.NoError(t, err)
	return &countingHasher{Hasher: h}
}

func newLogger() (logging.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	h := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), buf
}
