package config

// DefaultCacheSize is the memo cache capacity used when engine.cache_size is unset.
const DefaultCacheSize = 10000

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "./data/engine.snap"
	}
	if cfg.Storage.SnapshotName == "" {
		cfg.Storage.SnapshotName = "default"
	}
	// Output columns default to every transformer column in declared order.
	if len(cfg.Engine.Columns) == 0 {
		for _, spec := range cfg.Engine.Transformers {
			cfg.Engine.Columns = append(cfg.Engine.Columns, spec.Column)
		}
	}
}
