package speak_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	speak "github.com/speaklabs/go-speak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := speak.LoadSettings(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", settings.GetAPIBaseURL())
	assert.Equal(t, "ws://localhost:5000/socket", settings.GetSocketURL())
	assert.Empty(t, settings.GetTokenPath())
	assert.Equal(t, 30*time.Second, settings.GetHTTPTimeout())
}

func TestLoadSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	cfg := []byte("api_base_url: https://api.speak.example\nsocket_url: wss://api.speak.example/socket\nhttp_timeout: 10s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "speak.yaml"), cfg, 0o600))

	settings, err := speak.LoadSettings(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.speak.example", settings.GetAPIBaseURL())
	assert.Equal(t, "wss://api.speak.example/socket", settings.GetSocketURL())
	assert.Equal(t, 10*time.Second, settings.GetHTTPTimeout())
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	t.Setenv("SPEAK_API_BASE_URL", "https://env.speak.example")

	settings, err := speak.LoadSettings(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://env.speak.example", settings.GetAPIBaseURL())
}
