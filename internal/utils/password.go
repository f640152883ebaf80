package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params holds the tunable cost parameters for argon2id hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns OWASP-recommended defaults for Argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// HashPassword derives an argon2id digest of plain with a random salt and
// encodes it in the standard PHC string format, e.g.
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>. The salt and all cost
// parameters are embedded in the digest so verification needs no external
// state. Hashing is CPU and memory bound and takes tens of milliseconds.
func HashPassword(plain string, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword re-derives the digest of plain using the salt and
// parameters embedded in encoded and compares in constant time. It returns
// false on mismatch, on a malformed or foreign digest, and on an
// unsupported argon2 version. Callers must treat "cannot verify" the same
// as "wrong password", so no error is ever returned from here.
func VerifyPassword(encoded, plain string) bool {
	p, salt, key, err := decodeDigest(encoded)
	if err != nil {
		return false
	}
	derived := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(key, derived) == 1
}

// maxDigestMemoryKiB bounds the memory cost a stored digest may demand
// during verification. Digests above it are treated as foreign: deriving
// with attacker-chosen multi-GiB costs would let a poisoned digest pin
// the server.
const maxDigestMemoryKiB = 1 << 20 // 1 GiB

// decodeDigest splits a PHC argon2id string back into its parameter set,
// salt and derived key. Cost parameters argon2 would reject are refused
// here so VerifyPassword stays panic-free on any input.
func decodeDigest(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("invalid argon2id digest format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	if p.Iterations < 1 || p.Parallelism < 1 || p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxDigestMemoryKiB {
		return p, nil, nil, errors.New("argon2id cost parameters out of range")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, err
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
