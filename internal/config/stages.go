package config

import "time"

// Default stream keys.
const (
	StreamRaw        = "raw"
	StreamNormalized = "normalized"
	StreamFiltered   = "filtered"
)

// NormalizerConfig holds normalizer-worker-specific settings.
type NormalizerConfig struct {
	Base
	RawStreamKey        string
	NormalizedStreamKey string
	BatchSize           int64
	BlockTimeout        time.Duration
}

// LoadNormalizerConfig reads normalizer settings from the environment.
func LoadNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Base:                LoadBase(),
		RawStreamKey:        getEnv("SIEM_STREAM_RAW", StreamRaw),
		NormalizedStreamKey: getEnv("SIEM_STREAM_NORMALIZED", StreamNormalized),
		BatchSize:           int64(getEnvInt("SIEM_NORMALIZER_BATCH_SIZE", 100)),
		BlockTimeout:        getEnvDuration("SIEM_NORMALIZER_BLOCK_SECS", 5),
	}
}

// FilterConfig holds filter-worker-specific settings.
type FilterConfig struct {
	Base
	NormalizedStreamKey string
	FilteredStreamKey   string
	BatchSize           int64
	BlockTimeout        time.Duration
	ReloadInterval      time.Duration
}

// LoadFilterConfig reads filter settings from the environment.
func LoadFilterConfig() FilterConfig {
	return FilterConfig{
		Base:                LoadBase(),
		NormalizedStreamKey: getEnv("SIEM_STREAM_NORMALIZED", StreamNormalized),
		FilteredStreamKey:   getEnv("SIEM_STREAM_FILTERED", StreamFiltered),
		BatchSize:           int64(getEnvInt("SIEM_FILTER_BATCH_SIZE", 100)),
		BlockTimeout:        getEnvDuration("SIEM_FILTER_BLOCK_SECS", 5),
		ReloadInterval:      getEnvDuration("SIEM_FILTER_RELOAD_SECS", 30),
	}
}

// StreamCorrConfig holds stream-correlator-specific settings.
type StreamCorrConfig struct {
	Base
	FilteredStreamKey string
	Group             string
	Consumer          string
	BatchSize         int64
	BlockTimeout      time.Duration
	ReloadInterval    time.Duration
}

// LoadStreamCorrConfig reads stream correlator settings from the environment.
func LoadStreamCorrConfig() StreamCorrConfig {
	return StreamCorrConfig{
		Base:              LoadBase(),
		FilteredStreamKey: getEnv("SIEM_STREAM_FILTERED", StreamFiltered),
		Group:             getEnv("SIEM_STREAMCORR_GROUP", "stream_corr"),
		Consumer:          getEnv("SIEM_STREAMCORR_CONSUMER", "stream_corr-1"),
		BatchSize:         int64(getEnvInt("SIEM_STREAMCORR_BATCH_SIZE", 200)),
		BlockTimeout:      getEnvDuration("SIEM_STREAMCORR_BLOCK_SECS", 5),
		ReloadInterval:    getEnvDuration("SIEM_STREAMCORR_RELOAD_SECS", 60),
	}
}

// WriterConfig holds writer-specific settings.
type WriterConfig struct {
	Base
	FilteredStreamKey string
	BatchSize         int64
	BlockTimeout      time.Duration
	LastIDKey         string
}

// LoadWriterConfig reads writer settings from the environment.
func LoadWriterConfig() WriterConfig {
	return WriterConfig{
		Base:              LoadBase(),
		FilteredStreamKey: getEnv("SIEM_STREAM_FILTERED", StreamFiltered),
		BatchSize:         int64(getEnvInt("SIEM_WRITER_BATCH_SIZE", 100)),
		BlockTimeout:      getEnvDuration("SIEM_WRITER_BLOCK_SECS", 5),
		LastIDKey:         getEnv("SIEM_WRITER_LAST_ID_KEY", "writer:last_id"),
	}
}

// BatchCorrConfig holds batch-correlator-specific settings.
type BatchCorrConfig struct {
	Base
	IntervalSec int
}

// LoadBatchCorrConfig reads batch correlator settings from the environment.
func LoadBatchCorrConfig() BatchCorrConfig {
	return BatchCorrConfig{
		Base:        LoadBase(),
		IntervalSec: getEnvInt("SIEM_BATCHCORR_INTERVAL_SEC", 60),
	}
}

// AlertsAggConfig holds alerts-aggregator-specific settings.
type AlertsAggConfig struct {
	Base
	IntervalSec int
}

// LoadAlertsAggConfig reads alerts aggregator settings from the environment.
func LoadAlertsAggConfig() AlertsAggConfig {
	return AlertsAggConfig{
		Base:        LoadBase(),
		IntervalSec: getEnvInt("SIEM_ALERTSAGG_INTERVAL_SEC", 30),
	}
}
