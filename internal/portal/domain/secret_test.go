package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestValidateNewSecret(t *testing.T) {
	t.Parallel()

	t.Run("accepts a fresh password", func(t *testing.T) {
		require.NoError(t, domain.ValidateNewSecret("temp123", "newSecret1"))
	})

	t.Run("rejects empty", func(t *testing.T) {
		err := domain.ValidateNewSecret("temp123", "")
		require.ErrorIs(t, err, domain.ErrWeakOrReusedSecret)
		require.Equal(t, "New password is required", domain.UserMessage(err))
	})

	t.Run("rejects short", func(t *testing.T) {
		err := domain.ValidateNewSecret("temp123", "abc12")
		require.ErrorIs(t, err, domain.ErrWeakOrReusedSecret)
		require.Equal(t, "Password must be at least 6 characters", domain.UserMessage(err))
	})

	t.Run("six characters is enough", func(t *testing.T) {
		require.NoError(t, domain.ValidateNewSecret("temp123", "abc123"))
	})

	t.Run("rejects reuse", func(t *testing.T) {
		err := domain.ValidateNewSecret("temp123", "temp123")
		require.ErrorIs(t, err, domain.ErrWeakOrReusedSecret)
		require.Equal(t, domain.KindWeakOrReusedSecret, domain.KindOf(err))
		require.Equal(t, "New password must be different from current password", domain.UserMessage(err))
	})
}

func TestValidateConfirmation(t *testing.T) {
	t.Parallel()

	require.NoError(t, domain.ValidateConfirmation("newSecret1", "newSecret1"))
	err := domain.ValidateConfirmation("newSecret1", "newSecret2")
	require.ErrorIs(t, err, domain.ErrConfirmationMismatch)
	require.Equal(t, "New passwords do not match", domain.UserMessage(err))
}
