package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

type fileConfig struct {
	Config
	Timing map[string]string `json:"timing"`
}

// Load returns Default() merged with <name>.<ext> and then <name>.local.<ext>,
// later files taking priority. Missing files are skipped.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	ext := filepath.Ext(path)
	local := strings.TrimSuffix(path, ext) + ".local" + ext

	for _, name := range []string{path, local} {
		raw, err := os.ReadFile(name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", name, err)
		}

		var fc fileConfig
		if err := json5.Unmarshal(raw, &fc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", name, err)
		}
		if err := mergo.Merge(&cfg, fc.Config, mergo.WithOverride); err != nil {
			return cfg, fmt.Errorf("merge config %s: %w", name, err)
		}
		if err := cfg.applyTiming(fc.Timing); err != nil {
			return cfg, fmt.Errorf("config %s: %w", name, err)
		}
		slog.Debug("config file merged", "path", name)
	}

	return cfg, nil
}

func (c *Config) applyTiming(timing map[string]string) error {
	targets := map[string]*time.Duration{
		"suggestion_timeout":   &c.SuggestionTimeout,
		"results_timeout":      &c.ResultsTimeout,
		"new_tab_timeout":      &c.NewTabTimeout,
		"network_idle_timeout": &c.NetworkIdleTimeout,
		"settle_delay":         &c.SettleDelay,
		"popup_interval":       &c.PopupInterval,
		"table_timeout":        &c.TableTimeout,
		"click_timeout":        &c.ClickTimeout,
		"job_timeout":          &c.JobTimeout,
		"save_timeout":         &c.SaveTimeout,
	}
	for key, value := range timing {
		target, ok := targets[key]
		if !ok {
			return fmt.Errorf("unknown timing key %q", key)
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("timing %s: %w", key, err)
		}
		*target = d
	}
	return nil
}
