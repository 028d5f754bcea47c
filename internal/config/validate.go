package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateDiscord(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTracker() error {
	if c.Tracker.VerifyDelay < 2 || c.Tracker.VerifyDelay > 6 {
		return errors.New("tracker.verify_delay must be between 2 and 6 seconds")
	}
	if c.Tracker.PriorityInterval >= c.Tracker.StandardInterval {
		return errors.New("tracker.priority_interval must be shorter than tracker.standard_interval")
	}
	if c.Tracker.MetadataInterval < c.Tracker.StandardInterval {
		return errors.New("tracker.metadata_interval must not be shorter than tracker.standard_interval")
	}
	if c.Tracker.BatchSize > 100 {
		return errors.New("tracker.batch_size must not exceed 100 (upstream request limit)")
	}
	return nil
}

func (c *Config) validateDiscord() error {
	base := strings.TrimSpace(c.Discord.APIBaseURL)
	if base != "" && !strings.HasPrefix(base, "http") {
		return fmt.Errorf("discord.api_base_url %q is not an http(s) URL", base)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
