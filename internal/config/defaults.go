package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Ingest.PageSize == 0 {
		cfg.Ingest.PageSize = 10
	}
	if cfg.Ingest.OutputDir == "" {
		cfg.Ingest.OutputDir = "./site"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./kiji-runs.db"
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 400
	}
	// Workers <= 0 means "use NumCPU"; the pipeline resolves it.
	// SeparatorPattern "" means the built-in default marker shape.
}
