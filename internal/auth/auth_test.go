package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTSignVerify(t *testing.T) {
	t.Parallel()

	j := NewJWT("test-secret")

	tok, err := j.Sign(42)
	require.NoError(t, err)

	uid, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
}

func TestJWTVerifyRejects(t *testing.T) {
	t.Parallel()

	j := NewJWT("test-secret")
	tok, err := j.Sign(42)
	require.NoError(t, err)

	_, err = NewJWT("other-secret").Verify(tok)
	assert.Error(t, err)

	_, err = j.Verify("not.a.jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, ComparePassword(hash, "hunter2hunter2"))
	assert.False(t, ComparePassword(hash, "wrong"))
}

func TestGenerateOTP(t *testing.T) {
	t.Parallel()

	code := GenerateOTP()
	require.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}
