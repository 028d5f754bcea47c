package config

const (
	defaultDataDir           = "~/.local/share/sentinel"
	defaultLogDir            = "~/.local/share/sentinel/logs"
	defaultAPIBind           = "127.0.0.1:7311"
	defaultRequestTimeout    = 10
	defaultUsersBaseURL      = "https://users.roblox.com"
	defaultPresenceBaseURL   = "https://presence.roblox.com"
	defaultFriendsBaseURL    = "https://friends.roblox.com"
	defaultThumbnailsBaseURL = "https://thumbnails.roblox.com"
	defaultGroupsBaseURL     = "https://groups.roblox.com"
	defaultGamesBaseURL      = "https://games.roblox.com"
	defaultDiscordBaseURL    = "https://discord.com/api/v10"
	defaultPriorityInterval  = 10
	defaultStandardInterval  = 30
	defaultMetadataInterval  = 300
	defaultBatchSize         = 50
	defaultBatchPause        = 1
	defaultVerifyDelay       = 6
	defaultMetadataPause     = 2
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Roblox: Roblox{
			RequestTimeout:    defaultRequestTimeout,
			UsersBaseURL:      defaultUsersBaseURL,
			PresenceBaseURL:   defaultPresenceBaseURL,
			FriendsBaseURL:    defaultFriendsBaseURL,
			ThumbnailsBaseURL: defaultThumbnailsBaseURL,
			GroupsBaseURL:     defaultGroupsBaseURL,
			GamesBaseURL:      defaultGamesBaseURL,
		},
		Discord: Discord{
			APIBaseURL:     defaultDiscordBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Tracker: Tracker{
			PriorityInterval: defaultPriorityInterval,
			StandardInterval: defaultStandardInterval,
			MetadataInterval: defaultMetadataInterval,
			BatchSize:        defaultBatchSize,
			BatchPause:       defaultBatchPause,
			VerifyDelay:      defaultVerifyDelay,
			MetadataPause:    defaultMetadataPause,
		},
		Authz: Authz{
			AdminRoles:  []string{"admin"},
			ViewerRoles: []string{"viewer"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
