package config

// DefaultAPIBind is the address the API listens on when no config is
// available, and the address CLI commands dial by default.
const DefaultAPIBind = "127.0.0.1:7910"

const (
	defaultDataDir = "~/.local/share/ordervox"
	defaultLogDir  = "~/.local/share/ordervox/logs"
	defaultDailyBudget               = 5.00
	defaultWarningUtilization        = 0.8
	defaultBudgetWindowHours         = 24
	defaultCacheTTLHours             = 24
	defaultCacheCapacity             = 1024
	defaultSizeThresholdBytes        = 500 * 1024
	defaultTranscriberBaseURL        = ""
	defaultTranscriberModel          = "whisper-1"
	defaultTranscriberTimeoutSeconds = 60
	defaultTranscriberMaxRetries     = 2
	defaultPerMinuteRate             = 0.006
	defaultParsingPerRequestCost     = 0.002
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: DefaultAPIBind,
		},
		Budget: Budget{
			Daily:              defaultDailyBudget,
			WarningUtilization: defaultWarningUtilization,
			WindowHours:        defaultBudgetWindowHours,
		},
		Cache: Cache{
			TTLHours: defaultCacheTTLHours,
			Capacity: defaultCacheCapacity,
		},
		Optimizer: Optimizer{
			SizeThresholdBytes: defaultSizeThresholdBytes,
		},
		Transcriber: Transcriber{
			BaseURL:        defaultTranscriberBaseURL,
			Model:          defaultTranscriberModel,
			TimeoutSeconds: defaultTranscriberTimeoutSeconds,
			MaxRetries:     defaultTranscriberMaxRetries,
			PerMinuteRate:  defaultPerMinuteRate,
		},
		Parsing: Parsing{
			PerRequestCost: defaultParsingPerRequestCost,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
