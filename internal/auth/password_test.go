package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hashed, err := h.Hash("Secret1!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret1!", hashed)

	ok, err := h.Verify("Secret1!", hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hashed)
	require.NoError(t, err, "a mismatch must not be an error")
	assert.False(t, ok)
}

func TestHasher_SaltedOutputsDiffer(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("Secret1!")
	require.NoError(t, err)
	second, err := h.Hash("Secret1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, second, len(first))
}

func TestHasher_RejectsEmptyPassword(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHasher_MalformedStoredHash(t *testing.T) {
	ok, err := NewHasher(bcrypt.MinCost).Verify("Secret1!", "not-a-bcrypt-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestNewHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

func TestHasher_Burn(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	h.Burn("anything")
	h.Burn("anything else")
	assert.NotEmpty(t, h.dummy)
}
