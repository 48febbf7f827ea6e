package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-ini/ini"

	"git.sr.ht/~rjarry/maildiscover/lib/autoconfig"
	"git.sr.ht/~rjarry/maildiscover/lib/log"
	"git.sr.ht/~rjarry/maildiscover/lib/verify"
)

type DiscoveryConfig struct {
	FetchTimeout time.Duration `ini:"fetch-timeout"`
	SuccessTTL   time.Duration `ini:"success-ttl"`
	FailureTTL   time.Duration `ini:"failure-ttl"`
	IspdbURL     string        `ini:"ispdb-url"`
}

type VerifyConfig struct {
	Timeout       time.Duration `ini:"timeout"`
	TokenEndpoint string        `ini:"token-endpoint"`
	ClientID      string        `ini:"client-id"`
	ClientSecret  string        `ini:"client-secret"`
	Scopes        []string      `ini:"scopes" delim:" "`
}

type LogConfig struct {
	File  string       `ini:"file"`
	Level log.LogLevel `ini:"-"`
}

type MaildiscoverConfig struct {
	Discovery DiscoveryConfig
	Verify    VerifyConfig
	Log       LogConfig
}

func Defaults() *MaildiscoverConfig {
	return &MaildiscoverConfig{
		Discovery: DiscoveryConfig{
			FetchTimeout: autoconfig.DefaultFetchTimeout,
			SuccessTTL:   autoconfig.DefaultSuccessTTL,
			FailureTTL:   autoconfig.DefaultFailureTTL,
			IspdbURL:     autoconfig.DefaultISPDBURL,
		},
		Verify: VerifyConfig{
			Timeout: verify.DefaultTimeout,
		},
		Log: LogConfig{
			Level: log.INFO,
		},
	}
}

// LoadConfig reads the ini settings file at path. A missing file is not an
// error, it yields the defaults.
func LoadConfig(path string) (*MaildiscoverConfig, error) {
	config := Defaults()
	if path == "" {
		return config, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if sec, err := file.GetSection("discovery"); err == nil {
		if err := sec.StrictMapTo(&config.Discovery); err != nil {
			return nil, fmt.Errorf("%s: [discovery] %w", path, err)
		}
	}
	if sec, err := file.GetSection("verify"); err == nil {
		if err := sec.StrictMapTo(&config.Verify); err != nil {
			return nil, fmt.Errorf("%s: [verify] %w", path, err)
		}
	}
	if sec, err := file.GetSection("log"); err == nil {
		if err := sec.StrictMapTo(&config.Log); err != nil {
			return nil, fmt.Errorf("%s: [log] %w", path, err)
		}
		if key, err := sec.GetKey("level"); err == nil {
			level, err := log.ParseLevel(key.String())
			if err != nil {
				return nil, fmt.Errorf("%s: [log] %w", path, err)
			}
			config.Log.Level = level
		}
	}
	return config, nil
}
