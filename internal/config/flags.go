package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database DSN
//	-c/-config json file path with configs
//	-master-secret master key secret
//	-system-salt deployment-wide derivation salt
//	-pbkdf2-iterations derivation cost
//	-session-hash-key session token HMAC secret
//	-session-duration session lifetime (e.g., "24h")
//	-sanitizer-interval sanitizer cadence (e.g., "1h")
//	-sanitizer-startup run one sanitizer pass at startup
//	-sanity-batch-size records per sanitizer fetch
//	-sanity-retention checksum trust window (e.g., "4320h")
func ParseFlags() *StructuredConfig {
	var databaseDSN string
	var jsonConfigPath string
	var masterSecret string
	var systemSalt string
	var pbkdf2Iterations int
	var sessionHashKey string
	var sessionDuration time.Duration
	var sanitizerInterval time.Duration
	var sanitizerStartup bool
	var sanityBatchSize int
	var sanityRetention time.Duration

	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&masterSecret, "master-secret", "", "Master key secret")
	flag.StringVar(&systemSalt, "system-salt", "", "Deployment-wide derivation salt")
	flag.IntVar(&pbkdf2Iterations, "pbkdf2-iterations", 0, "PBKDF2 iteration count")
	flag.StringVar(&sessionHashKey, "session-hash-key", "", "Session token HMAC secret")
	flag.DurationVar(&sessionDuration, "session-duration", 0, "Session lifetime (e.g., 24h)")
	flag.DurationVar(&sanitizerInterval, "sanitizer-interval", 0, "Sanitizer cadence (e.g., 1h)")
	flag.BoolVar(&sanitizerStartup, "sanitizer-startup", false, "Run one sanitizer pass at startup")
	flag.IntVar(&sanityBatchSize, "sanity-batch-size", 0, "Records per sanitizer fetch")
	flag.DurationVar(&sanityRetention, "sanity-retention", 0, "Checksum trust window (e.g., 4320h)")

	flag.Parse()

	return &StructuredConfig{
		Crypto: Crypto{
			MasterSecret:     masterSecret,
			SystemSalt:       systemSalt,
			PBKDF2Iterations: pbkdf2Iterations,
			SessionHashKey:   sessionHashKey,
			SessionDuration:  sessionDuration,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Workers: Workers{
			SanitizerInterval: sanitizerInterval,
			SanitizerStartup:  sanitizerStartup,
			SanityBatchSize:   sanityBatchSize,
			SanityRetention:   sanityRetention,
		},
		JSONFilePath: jsonConfigPath,
	}
}
