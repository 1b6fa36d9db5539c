package cryptox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastParams() ScryptParams {
	return ScryptParams{LogN: 4, R: 8, P: 1, SaltLen: 16, KeyLen: 32}
}

func newTestHasher(t *testing.T) *ScryptHasher {
	t.Helper()
	h, err := NewScryptHasher(fastParams())
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "garbage8")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(digest, "$scrypt$ln=4,r=8,p=1$"), digest)
	assert.NotContains(t, digest, "garbage8")

	assert.True(t, h.Verify(ctx, "garbage8", digest))
	assert.False(t, h.Verify(ctx, "wrong9999", digest))
	assert.False(t, h.Verify(ctx, "", digest))
}

func TestHash_SaltIsRandom(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	a, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify(ctx, "same-password", a))
	assert.True(t, h.Verify(ctx, "same-password", b))
}

func TestVerify_UsesParamsFromDigest(t *testing.T) {
	ctx := context.Background()

	old, err := NewScryptHasher(ScryptParams{LogN: 5, R: 4, P: 2, SaltLen: 8, KeyLen: 16})
	require.NoError(t, err)
	digest, err := old.Hash(ctx, "password1")
	require.NoError(t, err)

	// a hasher configured with different cost still verifies older digests
	current := newTestHasher(t)
	assert.True(t, current.Verify(ctx, "password1", digest))
}

func TestVerify_MalformedDigest(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		digest string
	}{
		{name: "empty", digest: ""},
		{name: "plaintext", digest: "garbage8"},
		{name: "wrong algorithm", digest: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$a2V5"},
		{name: "bad params", digest: "$scrypt$n=4$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5"},
		{name: "ln out of range", digest: "$scrypt$ln=0,r=8,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5"},
		{name: "bad salt", digest: "$scrypt$ln=4,r=8,p=1$***$a2V5a2V5a2V5a2V5a2V5"},
		{name: "bad key", digest: "$scrypt$ln=4,r=8,p=1$c2FsdHNhbHRzYWx0$***"},
		{name: "short key", digest: "$scrypt$ln=4,r=8,p=1$c2FsdHNhbHRzYWx0$a2V5"},
		{name: "ln above ceiling", digest: "$scrypt$ln=30,r=8,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5aw"},
		{name: "memory above ceiling", digest: "$scrypt$ln=20,r=1024,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5aw"},
		{name: "p above ceiling", digest: "$scrypt$ln=4,r=8,p=1000$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5aw"},
		{name: "extra section", digest: "$scrypt$ln=4,r=8,p=1$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5$x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify(ctx, "garbage8", tt.digest))
			})
		})
	}
}

func TestDeriveFailure(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "garbage8")
	require.NoError(t, err)

	orig := deriveKey
	t.Cleanup(func() { deriveKey = orig })
	deriveKey = func(password, salt []byte, N, r, p, keyLen int) ([]byte, error) {
		return nil, errors.New("boom")
	}

	_, err = h.Hash(ctx, "garbage8")
	assert.ErrorContains(t, err, "boom")
	assert.False(t, h.Verify(ctx, "garbage8", digest))
}

func TestCanceledContext(t *testing.T) {
	h := newTestHasher(t)

	digest, err := h.Hash(context.Background(), "garbage8")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "garbage8")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, h.Verify(ctx, "garbage8", digest))
}

func TestNewScryptHasher_InvalidParams(t *testing.T) {
	tests := []ScryptParams{
		{LogN: 0, R: 8, P: 1, SaltLen: 16, KeyLen: 32},
		{LogN: 31, R: 8, P: 1, SaltLen: 16, KeyLen: 32},
		{LogN: 4, R: 0, P: 1, SaltLen: 16, KeyLen: 32},
		{LogN: 4, R: 8, P: 0, SaltLen: 16, KeyLen: 32},
		{LogN: 4, R: 8, P: 1, SaltLen: 4, KeyLen: 32},
		{LogN: 4, R: 8, P: 1, SaltLen: 16, KeyLen: 8},
		{LogN: 21, R: 8, P: 1, SaltLen: 16, KeyLen: 32},
	}

	for _, p := range tests {
		_, err := NewScryptHasher(p)
		assert.ErrorIs(t, err, ErrInvalidParams, "%+v", p)
	}

	_, err := NewScryptHasher(DefaultScryptParams())
	assert.NoError(t, err)
}

func TestDecodeDigest_Ceilings(t *testing.T) {
	tail := "$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5a2V5a2V5aw"

	tests := []struct {
		name   string
		params string
		ok     bool
	}{
		{name: "default cost", params: "ln=15,r=8,p=1", ok: true},
		{name: "largest accepted", params: "ln=20,r=8,p=1", ok: true},
		{name: "ln too large", params: "ln=21,r=8,p=1"},
		{name: "1 TiB request", params: "ln=30,r=8,p=1"},
		{name: "r too large", params: "ln=18,r=64,p=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := decodeDigest("$scrypt$" + tt.params + tail)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedDigest)
			}
		})
	}
}
