package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAdminList(t *testing.T) {
	t.Run("ParsesCommaSeparatedIDs", func(t *testing.T) {
		t.Setenv("ADMIN_CHAT_IDS", "100, 200,300")

		admins, err := LoadAdminList()
		require.NoError(t, err)
		assert.Equal(t, 3, admins.Count())
		assert.True(t, admins.IsAdmin(100))
		assert.True(t, admins.IsAdmin(200))
		assert.True(t, admins.IsAdmin(300))
		assert.False(t, admins.IsAdmin(400))
	})

	t.Run("RejectsEmptyList", func(t *testing.T) {
		t.Setenv("ADMIN_CHAT_IDS", "")

		_, err := LoadAdminList()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ADMIN_CHAT_IDS")
	})

	t.Run("SkipsMalformedEntries", func(t *testing.T) {
		t.Setenv("ADMIN_CHAT_IDS", "100,abc,300")

		admins, err := LoadAdminList()
		require.NoError(t, err)
		assert.Equal(t, 2, admins.Count())
		assert.True(t, admins.IsAdmin(100))
		assert.True(t, admins.IsAdmin(300))
	})
}

func TestAdminListReload(t *testing.T) {
	t.Setenv("ADMIN_CHAT_IDS", "100")

	admins, err := LoadAdminList()
	require.NoError(t, err)
	assert.True(t, admins.IsAdmin(100))
	assert.False(t, admins.IsAdmin(200))

	// The allowlist survives a reload when no .env file overrides it
	require.NoError(t, admins.Reload())
	assert.True(t, admins.IsAdmin(100))
	assert.Equal(t, 1, admins.Count())

	t.Setenv("ADMIN_CHAT_IDS", "100,200")
	require.NoError(t, admins.Reload())
	assert.True(t, admins.IsAdmin(200))
	assert.Equal(t, 2, admins.Count())
}
