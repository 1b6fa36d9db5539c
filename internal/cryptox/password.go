// Package cryptox implements one-way password hashing.
//
// Digests are self-describing: cost parameters and salt are embedded, so
// verification needs nothing but the digest itself:
//
//	$scrypt$ln=15,r=8,p=1$<base64 salt>$<base64 key>
package cryptox

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userreg/internal/common"
	"golang.org/x/crypto/scrypt"
)

const scryptPrefix = "scrypt"

var (
	ErrMalformedDigest = errors.New("malformed password digest")
	ErrInvalidParams   = errors.New("invalid scrypt parameters")
)

// deriveKey is a seam for scrypt.Key.
var deriveKey = scrypt.Key

// Hasher hashes plaintext passwords and verifies them against stored digests.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, digest string) bool
}

// ScryptParams are the cost parameters written into every new digest.
// N is 1<<LogN.
type ScryptParams struct {
	LogN    uint8
	R       int
	P       int
	SaltLen int
	KeyLen  int
}

// DefaultScryptParams returns the interactive-login parameters recommended
// by the scrypt paper (N=2^15, r=8, p=1).
func DefaultScryptParams() ScryptParams {
	return ScryptParams{LogN: 15, R: 8, P: 1, SaltLen: 16, KeyLen: 32}
}

func (p ScryptParams) validate() error {
	if p.LogN < 1 || p.LogN > 30 {
		return fmt.Errorf("%w: ln=%d", ErrInvalidParams, p.LogN)
	}
	if p.R < 1 || p.P < 1 || p.R*p.P >= 1<<30 {
		return fmt.Errorf("%w: r=%d p=%d", ErrInvalidParams, p.R, p.P)
	}
	if p.SaltLen < 8 || p.KeyLen < 16 || p.KeyLen > 64 {
		return fmt.Errorf("%w: salt=%d key=%d", ErrInvalidParams, p.SaltLen, p.KeyLen)
	}
	return nil
}

// Ceilings for parameters read back from stored digests.
const (
	maxDigestLogN   = 20
	maxDigestMemory = 1 << 30
	maxDigestP      = 16
)

// affordable reports whether deriving a key with p stays within the digest
// ceilings. scrypt needs about 128*r*N bytes.
func (p ScryptParams) affordable() bool {
	if p.LogN > maxDigestLogN || p.P > maxDigestP {
		return false
	}
	return int64(128)*int64(p.R)*(int64(1)<<p.LogN) <= maxDigestMemory
}

// ScryptHasher is a Hasher backed by golang.org/x/crypto/scrypt.
type ScryptHasher struct {
	params ScryptParams
}

func NewScryptHasher(p ScryptParams) (*ScryptHasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if !p.affordable() {
		return nil, fmt.Errorf("%w: ln=%d r=%d p=%d exceeds digest ceilings", ErrInvalidParams, p.LogN, p.R, p.P)
	}
	return &ScryptHasher{params: p}, nil
}

// Hash derives a key from password with a fresh random salt.
func (h *ScryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	salt := common.GenerateRandByteArray(h.params.SaltLen)
	key, err := deriveKey([]byte(password), salt, 1<<h.params.LogN, h.params.R, h.params.P, h.params.KeyLen)
	if err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}

	return encodeDigest(h.params, salt, key), nil
}

// Verify reports whether password matches digest. Every failure, including a
// digest that cannot be parsed, is reported as a mismatch.
func (h *ScryptHasher) Verify(ctx context.Context, password, digest string) bool {
	if ctx.Err() != nil {
		return false
	}

	p, salt, want, err := decodeDigest(digest)
	if err != nil {
		return false
	}

	got, err := deriveKey([]byte(password), salt, 1<<p.LogN, p.R, p.P, len(want))
	if err != nil {
		return false
	}
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1
}

func encodeDigest(p ScryptParams, salt, key []byte) string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$%s$ln=%d,r=%d,p=%d$%s$%s",
		scryptPrefix, p.LogN, p.R, p.P, enc.EncodeToString(salt), enc.EncodeToString(key))
}

func decodeDigest(digest string) (ScryptParams, []byte, []byte, error) {
	var p ScryptParams

	// "", "scrypt", "ln=..,r=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != scryptPrefix {
		return p, nil, nil, ErrMalformedDigest
	}

	if _, err := fmt.Sscanf(parts[2], "ln=%d,r=%d,p=%d", &p.LogN, &p.R, &p.P); err != nil {
		return p, nil, nil, ErrMalformedDigest
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[3])
	if err != nil {
		return p, nil, nil, ErrMalformedDigest
	}
	key, err := enc.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedDigest
	}

	p.SaltLen, p.KeyLen = len(salt), len(key)
	if err := p.validate(); err != nil || !p.affordable() {
		return p, nil, nil, ErrMalformedDigest
	}

	return p, salt, key, nil
}
