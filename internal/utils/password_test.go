package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testParams keeps hashing cheap in tests; the digest format and the
// verification path are identical to production parameters.
func testParams() Argon2Params {
	return Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	digest, err := HashPassword("Secret1", testParams())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(digest, "$argon2id$"))
	require.True(t, VerifyPassword(digest, "Secret1"))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	t.Parallel()

	digest, err := HashPassword("Secret1", testParams())
	require.NoError(t, err)
	require.False(t, VerifyPassword(digest, "WrongPass"))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	t.Parallel()

	d1, err := HashPassword("Secret1", testParams())
	require.NoError(t, err)
	d2, err := HashPassword("Secret1", testParams())
	require.NoError(t, err)

	require.NotEqual(t, d1, d2)
	require.True(t, VerifyPassword(d1, "Secret1"))
	require.True(t, VerifyPassword(d2, "Secret1"))
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	t.Parallel()

	// Verification must absorb every malformed input and report a plain
	// mismatch; callers treat "cannot verify" as "wrong password".
	cases := []string{
		"",
		"not-a-digest",
		"$argon2id$v=19$m=1024,t=1,p=1$salt",                  // too few segments
		"$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$aGFzaA",          // unsupported version
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",          // wrong variant
		"$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0a3QnLyq6eS6Nqkp9Y", // bcrypt digest
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",            // invalid base64 salt
		"$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA", // zero iterations
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA", // zero threads
		"$argon2id$v=19$m=4,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",    // memory below argon2 minimum
		"$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA", // absurd memory cost
	}
	for _, digest := range cases {
		require.NotPanics(t, func() {
			require.False(t, VerifyPassword(digest, "Secret1"), "digest %q", digest)
		}, "digest %q", digest)
	}
}
