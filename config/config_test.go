package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"git.sr.ht/~rjarry/maildiscover/lib/log"
	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maildiscover.conf")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"no path", ""},
		{"missing file", "/nonexistent/maildiscover.conf"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			config, err := LoadConfig(test.path)
			assert.NoError(t, err)
			assert.Equal(t, Defaults(), config)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[discovery]
fetch-timeout = 2s
success-ttl = 30m
failure-ttl = 5m
ispdb-url = https://ispdb.example.com/v1.1/

[verify]
timeout = 3s
token-endpoint = https://oauth2.example.com/token
client-id = maildiscover

[log]
level = debug
`)
	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 2*time.Second, config.Discovery.FetchTimeout)
	assert.Equal(t, 30*time.Minute, config.Discovery.SuccessTTL)
	assert.Equal(t, 5*time.Minute, config.Discovery.FailureTTL)
	assert.Equal(t, "https://ispdb.example.com/v1.1/", config.Discovery.IspdbURL)
	assert.Equal(t, 3*time.Second, config.Verify.Timeout)
	assert.Equal(t, "https://oauth2.example.com/token", config.Verify.TokenEndpoint)
	assert.Equal(t, "maildiscover", config.Verify.ClientID)
	assert.Equal(t, log.DEBUG, config.Log.Level)
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, "[discovery]\nfetch-timeout = 1s\n")
	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, time.Second, config.Discovery.FetchTimeout)
	// untouched sections keep their defaults
	assert.Equal(t, Defaults().Verify, config.Verify)
	assert.Equal(t, Defaults().Log, config.Log)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad duration", "[discovery]\nfetch-timeout = soon\n"},
		{"bad log level", "[log]\nlevel = shouting\n"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, test.content))
			assert.Error(t, err)
		})
	}
}
