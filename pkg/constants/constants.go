// Package constants provides shared constants for the refinance-forecast application.
package constants

// DateTimeLayout is the format expected in config files and is also the output
// date format for labelled schedule months.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// DefaultTermYears is the loan term used when none is configured
	DefaultTermYears = 30

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// HighClosingCostPercent is the closing cost above which a warning is raised
	HighClosingCostPercent = 10.0
)

// Sweep defaults mirror the refinance timing charts.
const (
	// DefaultSweepStep is the spacing in months between evaluated refinance months
	DefaultSweepStep = 6

	// DefaultSweepLimit is the last refinance month considered by a sweep
	DefaultSweepLimit = 240
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// CSV report kinds
const (
	// CsvKindSchedule selects the amortization schedule table
	CsvKindSchedule = "schedule"

	// CsvKindSweep selects the refinance month sweep table
	CsvKindSweep = "sweep"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultRateLimitRequests is the number of requests a client may make per window
	DefaultRateLimitRequests = 60

	// DefaultRateLimitWindow is the refill window of the per-client rate limiter
	DefaultRateLimitWindow = "1m"

	// DefaultCacheTTL is how long computed responses stay cached
	DefaultCacheTTL = "10m"

	// CacheBackendMemory keeps cached responses in process
	CacheBackendMemory = "memory"

	// CacheBackendRedis keeps cached responses in Redis
	CacheBackendRedis = "redis"

	// CacheBackendNone disables response caching
	CacheBackendNone = "none"
)
