package config

const (
	defaultOutputDir            = "output"
	defaultSystemDir            = "system"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultWorkers              = 2
	defaultRetries              = 2
	defaultRetryDelaySeconds    = 2
	defaultSocketTimeoutSeconds = 60
	defaultMinFileBytes         = 10_000
	defaultMergeContainer       = "mp4"
	defaultHistoryKeep          = 50

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/131.0.0.0 Safari/537.36"
)

func defaultCookieFileCandidates() []string {
	return []string{
		"cookies.txt",
		"system/cookies.txt",
		"resources/cookies.txt",
	}
}

func defaultBrowsers() []string {
	return []string{"edge", "chrome", "firefox", "brave", "opera", "vivaldi"}
}

func defaultExcludedProtocols() []string {
	return []string{"m3u8", "m3u8_native"}
}

func defaultStrategies() []Strategy {
	return []Strategy{
		{
			Name:       "cookies-desktop-clients",
			UseCookies: true,
			Clients:    []string{"tv_downgraded", "web", "web_safari"},
		},
		{
			Name:       "cookies-mobile-clients",
			UseCookies: true,
			Clients:    []string{"ios_downgraded", "android_vr", "web"},
		},
		{
			Name:       "no-cookies-mobile",
			UseCookies: false,
			Clients:    []string{"ios_downgraded", "android_vr"},
		},
		{
			Name:       "no-cookies-default",
			UseCookies: false,
			Clients:    []string{"android", "web"},
		},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			SystemDir: defaultSystemDir,
		},
		Cookies: Cookies{
			FileCandidates: defaultCookieFileCandidates(),
			Browsers:       defaultBrowsers(),
		},
		Format: Format{
			ExcludedProtocols: defaultExcludedProtocols(),
			MergeContainer:    defaultMergeContainer,
		},
		Download: Download{
			Workers:              defaultWorkers,
			Retries:              defaultRetries,
			RetryDelaySeconds:    defaultRetryDelaySeconds,
			SocketTimeoutSeconds: defaultSocketTimeoutSeconds,
			MinFileBytes:         defaultMinFileBytes,
			UserAgent:            defaultUserAgent,
			Strategies:           defaultStrategies(),
		},
		History: History{
			Enabled: true,
			Keep:    defaultHistoryKeep,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
