package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordVerifier_Plain(t *testing.T) {
	verifier := NewPasswordVerifier("S3cret!", "")

	assert.NoError(t, verifier.Verify("S3cret!"))

	for _, attempt := range []string{"", "s3cret!", "S3CRET!", "S3cret! ", " S3cret!", "S3cret"} {
		assert.ErrorIs(t, verifier.Verify(attempt), ErrInvalidPassword, attempt)
	}
}

func TestPasswordVerifier_Hash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	verifier := NewPasswordVerifier("ignored-when-hash-set", hash)

	assert.NoError(t, verifier.Verify("correct horse"))
	assert.ErrorIs(t, verifier.Verify("Correct horse"), ErrInvalidPassword)
	assert.ErrorIs(t, verifier.Verify("ignored-when-hash-set"), ErrInvalidPassword)
	assert.ErrorIs(t, verifier.Verify(""), ErrInvalidPassword)
}

func TestPasswordVerifier_NoCredential(t *testing.T) {
	verifier := NewPasswordVerifier("", "")

	assert.ErrorIs(t, verifier.Verify(""), ErrNoCredential)
	assert.ErrorIs(t, verifier.Verify("anything"), ErrNoCredential)
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
