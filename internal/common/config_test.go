package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "http://localhost:9222", config.CDP.URL)
	assert.Equal(t, 20, config.API.PageSize)
	assert.Equal(t, MinPageDelay, config.API.PageDelay)
	assert.Equal(t, "list_export.json", config.Export.Output)
	assert.Equal(t, "info", config.Logging.Level)

	require.NoError(t, config.Validate())
}

func TestLoadFromFile_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recenseo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[cdp]
url = "http://localhost:9223"

[export]
output = "custom.json"

[logging]
level = "debug"
`), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9223", config.CDP.URL)
	assert.Equal(t, "custom.json", config.Export.Output)
	assert.Equal(t, "debug", config.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 20, config.API.PageSize)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recenseo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[cdp]
url = "http://from-file:9222"
`), 0644))

	t.Setenv("RECENSEO_CDP_URL", "http://from-env:9222")
	t.Setenv("RECENSEO_LOG_LEVEL", "warn")

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:9222", config.CDP.URL)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestApplyFlagOverrides_HighestPriority(t *testing.T) {
	config := NewDefaultConfig()
	config.CDP.URL = "http://from-env:9222"

	ApplyFlagOverrides(config, "http://from-flag:9222", "flag.json", true)

	assert.Equal(t, "http://from-flag:9222", config.CDP.URL)
	assert.Equal(t, "flag.json", config.Export.Output)
	assert.Equal(t, "error", config.Logging.Level)
}

func TestApplyFlagOverrides_EmptyValuesLeaveConfigAlone(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, "", "", false)

	assert.Equal(t, "http://localhost:9222", config.CDP.URL)
	assert.Equal(t, "list_export.json", config.Export.Output)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestValidate_FloorsPageDelay(t *testing.T) {
	config := NewDefaultConfig()
	config.API.PageDelay = 50 * time.Millisecond

	require.NoError(t, config.Validate())
	assert.Equal(t, MinPageDelay, config.API.PageDelay)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.API.PageSize = 0
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.API.PageSize = 500
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Logging.Level = "loud"
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.CDP.URL = "not a url"
	assert.Error(t, config.Validate())
}
