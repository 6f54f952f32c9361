package statusbridge

import (
	"time"

	"github.com/kingrea/fieldcrm/internal/config"
)

const (
	defaultAddr         = "127.0.0.1:8766"
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Settings is where the bridge listens and how long it waits on clients.
type Settings struct {
	Enabled      bool
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SettingsFromConfig reads the bridge section of config.yaml, env
// overrides included. A nil config leaves the bridge off.
func SettingsFromConfig(cfg *config.Config) Settings {
	var s Settings
	if cfg != nil {
		s.Enabled = cfg.BridgeEnabled()
		s.Addr = cfg.BridgeAddress()
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Addr == "" {
		s.Addr = defaultAddr
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = defaultIdleTimeout
	}
	return s
}
