package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays TIMELINE_* environment variables onto cfg. Unparsable
// values are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("TIMELINE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TIMELINE_TABLE"); v != "" {
		cfg.Table = v
	}
	if v := os.Getenv("TIMELINE_FSYNC"); v != "" {
		cfg.Store.Fsync = v
	}
	envInt("TIMELINE_FSYNC_INTERVAL_MS", &cfg.Store.FsyncIntervalMs)
	envInt("TIMELINE_SLOW_COMMIT_MS", &cfg.Store.SlowCommitMs)
	envInt("TIMELINE_MAX_CHUNK_BYTES", &cfg.Codec.MaxChunkBytes)
	envInt("TIMELINE_MAX_PAYLOAD_BYTES", &cfg.Codec.MaxPayloadBytes)
	if v := os.Getenv("TIMELINE_VERIFY_CRC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Codec.VerifyCRC = b
		}
	}
	envInt("TIMELINE_BATCH_SIZE", &cfg.Write.BatchSize)
	envInt("TIMELINE_FLUSH_INTERVAL_MS", &cfg.Write.FlushIntervalMs)
	if v := os.Getenv("TIMELINE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TIMELINE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("TIMELINE_LOG_OUTPUTS"); v != "" {
		cfg.Log.Outputs = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Log.Outputs = append(cfg.Log.Outputs, p)
			}
		}
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
