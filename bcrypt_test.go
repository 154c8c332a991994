package auth_test

import (
	"testing"

	"github.com/goliatone/go-authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "Secret@123",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, auth.IsValidationFailed(err))
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = hasher.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	password := "Secret@123"
	hash, err := hasher.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "Secret@124",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "invalidhash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hasher.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.hash == hash {
					assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, auth.NewBcryptHasher(1).Cost)
	assert.Equal(t, bcrypt.MaxCost, auth.NewBcryptHasher(99).Cost)
	assert.Equal(t, 0, auth.NewBcryptHasher(0).Cost)
}

func TestHashesAreSalted(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	h1, err := hasher.HashPassword("Secret@123")
	require.NoError(t, err)
	h2, err := hasher.HashPassword("Secret@123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
