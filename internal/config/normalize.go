package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRoblox()
	c.normalizeDiscord()
	c.normalizeTracker()
	c.normalizeAuthz()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Paths.APIViewerToken = strings.TrimSpace(c.Paths.APIViewerToken)
	return nil
}

func (c *Config) normalizeRoblox() {
	if c.Roblox.RequestTimeout <= 0 {
		c.Roblox.RequestTimeout = defaultRequestTimeout
	}
	if cookie := os.Getenv("ROBLOSECURITY"); cookie != "" && c.Roblox.SecurityCookie == "" {
		c.Roblox.SecurityCookie = cookie
	}
	normalizeBaseURL(&c.Roblox.UsersBaseURL, defaultUsersBaseURL)
	normalizeBaseURL(&c.Roblox.PresenceBaseURL, defaultPresenceBaseURL)
	normalizeBaseURL(&c.Roblox.FriendsBaseURL, defaultFriendsBaseURL)
	normalizeBaseURL(&c.Roblox.ThumbnailsBaseURL, defaultThumbnailsBaseURL)
	normalizeBaseURL(&c.Roblox.GroupsBaseURL, defaultGroupsBaseURL)
	normalizeBaseURL(&c.Roblox.GamesBaseURL, defaultGamesBaseURL)
}

func (c *Config) normalizeDiscord() {
	if c.Discord.RequestTimeout <= 0 {
		c.Discord.RequestTimeout = defaultRequestTimeout
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" && c.Discord.BotToken == "" {
		c.Discord.BotToken = token
	}
	normalizeBaseURL(&c.Discord.APIBaseURL, defaultDiscordBaseURL)
}

func (c *Config) normalizeTracker() {
	if c.Tracker.PriorityInterval <= 0 {
		c.Tracker.PriorityInterval = defaultPriorityInterval
	}
	if c.Tracker.StandardInterval <= 0 {
		c.Tracker.StandardInterval = defaultStandardInterval
	}
	if c.Tracker.MetadataInterval <= 0 {
		c.Tracker.MetadataInterval = defaultMetadataInterval
	}
	if c.Tracker.BatchSize <= 0 {
		c.Tracker.BatchSize = defaultBatchSize
	}
	if c.Tracker.BatchPause < 0 {
		c.Tracker.BatchPause = defaultBatchPause
	}
	if c.Tracker.VerifyDelay <= 0 {
		c.Tracker.VerifyDelay = defaultVerifyDelay
	}
	if c.Tracker.MetadataPause < 0 {
		c.Tracker.MetadataPause = defaultMetadataPause
	}
}

func (c *Config) normalizeAuthz() {
	if len(c.Authz.AdminRoles) == 0 {
		c.Authz.AdminRoles = []string{"admin"}
	}
	if len(c.Authz.ViewerRoles) == 0 {
		c.Authz.ViewerRoles = []string{"viewer"}
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeBaseURL(value *string, fallback string) {
	trimmed := strings.TrimRight(strings.TrimSpace(*value), "/")
	if trimmed == "" {
		trimmed = fallback
	}
	*value = trimmed
}
