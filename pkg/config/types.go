package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent siamese configuration stored as
// config.toml in the .siamese/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Data        DataConfig        `toml:"data"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Model       ModelConfig       `toml:"model"`
	Train       TrainConfig       `toml:"train"`
	Output      OutputConfig      `toml:"output"`
	Storage     StorageConfig     `toml:"storage"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Events      EventsConfig      `toml:"events"`
	API         APIConfig         `toml:"api"`
}

// DataConfig selects the training dataset.
type DataConfig struct {
	Name          string  `toml:"name,omitempty"`
	File          string  `toml:"file,omitempty"`
	TrainingRatio float64 `toml:"training_ratio,omitempty"`
}

// EmbeddingConfig points at the pretrained word vectors.
type EmbeddingConfig struct {
	File string `toml:"file,omitempty"`
}

// ModelConfig holds the hyperparameters fixed at assembly.
type ModelConfig struct {
	MaxLen         int    `toml:"max_len,omitempty"`
	HiddenSize     int    `toml:"hidden_size,omitempty"`
	DistanceMetric string `toml:"distance_metric,omitempty"`
}

// TrainConfig holds the fit loop settings.
type TrainConfig struct {
	BatchSize    int     `toml:"batch_size,omitempty"`
	NumIters     int     `toml:"num_iters,omitempty"`
	LearningRate float64 `toml:"learning_rate,omitempty"`
	ClipNorm     float64 `toml:"clip_norm,omitempty"`
	Seed         int     `toml:"seed,omitempty"`
	Workers      int     `toml:"workers,omitempty"`
}

// OutputConfig is where trained models and reports are written.
type OutputConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// StorageConfig holds run history settings.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorStoreConfig holds sentence index settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EventsConfig holds training event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*field(c), 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"data.name":           stringKey(func(c *Config) *string { return &c.Data.Name }),
	"data.file":           stringKey(func(c *Config) *string { return &c.Data.File }),
	"data.training_ratio": floatKey("data.training_ratio", func(c *Config) *float64 { return &c.Data.TrainingRatio }),

	"embedding.file": stringKey(func(c *Config) *string { return &c.Embedding.File }),

	"model.max_len":         intKey("model.max_len", func(c *Config) *int { return &c.Model.MaxLen }),
	"model.hidden_size":     intKey("model.hidden_size", func(c *Config) *int { return &c.Model.HiddenSize }),
	"model.distance_metric": stringKey(func(c *Config) *string { return &c.Model.DistanceMetric }),

	"train.batch_size":    intKey("train.batch_size", func(c *Config) *int { return &c.Train.BatchSize }),
	"train.num_iters":     intKey("train.num_iters", func(c *Config) *int { return &c.Train.NumIters }),
	"train.learning_rate": floatKey("train.learning_rate", func(c *Config) *float64 { return &c.Train.LearningRate }),
	"train.clip_norm":     floatKey("train.clip_norm", func(c *Config) *float64 { return &c.Train.ClipNorm }),
	"train.seed":          intKey("train.seed", func(c *Config) *int { return &c.Train.Seed }),
	"train.workers":       intKey("train.workers", func(c *Config) *int { return &c.Train.Workers }),

	"output.dir": stringKey(func(c *Config) *string { return &c.Output.Dir }),

	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
}

// orderedKeys is the display order of configKeys, following the TOML layout.
var orderedKeys = []string{
	"data.name",
	"data.file",
	"data.training_ratio",
	"embedding.file",
	"model.max_len",
	"model.hidden_size",
	"model.distance_metric",
	"train.batch_size",
	"train.num_iters",
	"train.learning_rate",
	"train.clip_norm",
	"train.seed",
	"train.workers",
	"output.dir",
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.collection",
	"events.provider",
	"events.brokers",
	"events.topic",
	"api.listen",
}
