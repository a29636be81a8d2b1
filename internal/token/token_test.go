package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	t.Run("round trip preserves identity", func(t *testing.T) {
		signed, err := Sign("secret", 42, "a@b.c", "MEMBER", time.Hour)
		require.NoError(t, err)

		claims, err := Parse("secret", signed)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "a@b.c", claims.Email)
		assert.Equal(t, "MEMBER", claims.Role)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		signed, err := Sign("secret", 42, "a@b.c", "MEMBER", time.Hour)
		require.NoError(t, err)

		_, err = Parse("other", signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		signed, err := Sign("secret", 42, "a@b.c", "MEMBER", -time.Minute)
		require.NoError(t, err)

		_, err = Parse("secret", signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Parse("secret", "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
