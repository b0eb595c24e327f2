package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --data-file
// on both "siamese train" and "siamese evaluate").
type Flag struct {
	// Name is the long flag name (e.g. "data-file").
	Name string

	// Shorthand is the one-letter short flag (e.g. "f"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "data.file").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag, AddFloatFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagDataName       = "data-name"
	FlagDataFile       = "data-file"
	FlagTrainingRatio  = "training-ratio"
	FlagEmbeddingFile  = "embedding-file"
	FlagMaxLen         = "max-len"
	FlagHiddenSize     = "hidden-size"
	FlagDistanceMetric = "distance-metric"
	FlagBatchSize      = "batch-size"
	FlagNumIters       = "num-iters"
	FlagLearningRate   = "learning-rate"
	FlagClipNorm       = "clip-norm"
	FlagSeed           = "seed"
	FlagWorkers        = "workers"
	FlagOutputDir      = "output-dir"
	FlagModelDir       = "model-dir"
	FlagStorage        = "storage"
	FlagSQLite         = "sqlite"
	FlagPostgres       = "postgres"
	FlagVectorProvider = "vector-store-provider"
	FlagVectorTarget   = "vector-store-target"
	FlagEventsProvider = "events-provider"
	FlagEventsBrokers  = "events-brokers"
	FlagEventsTopic    = "events-topic"
	FlagAPIListen      = "listen"
)

// Flags is the shared registry used by the siamese commands.
var Flags = FlagSet{
	FlagDataName:       {Name: "data-name", ViperKey: "data.name", Description: "Dataset layout (sick, quora)"},
	FlagDataFile:       {Name: "data-file", Shorthand: "f", ViperKey: "data.file", Description: "Path to the dataset TSV file"},
	FlagTrainingRatio:  {Name: "training-ratio", Shorthand: "r", ViperKey: "data.training_ratio", Description: "Fraction of pairs used for training"},
	FlagEmbeddingFile:  {Name: "embedding-file", Shorthand: "e", ViperKey: "embedding.file", Description: "Pretrained word2vec or GloVe vectors"},
	FlagMaxLen:         {Name: "max-len", Shorthand: "l", ViperKey: "model.max_len", Description: "Sequence length; 0 uses the longest sentence"},
	FlagHiddenSize:     {Name: "hidden-size", Shorthand: "z", ViperKey: "model.hidden_size", Description: "LSTM hidden units"},
	FlagDistanceMetric: {Name: "distance-metric", Shorthand: "m", ViperKey: "model.distance_metric", Description: "Similarity transform (manhattan, cosine)"},
	FlagBatchSize:      {Name: "batch-size", Shorthand: "b", ViperKey: "train.batch_size", Description: "Minibatch size"},
	FlagNumIters:       {Name: "num-iters", Shorthand: "n", ViperKey: "train.num_iters", Description: "Number of epochs"},
	FlagLearningRate:   {Name: "learning-rate", ViperKey: "train.learning_rate", Description: "Adadelta learning rate"},
	FlagClipNorm:       {Name: "clip-norm", ViperKey: "train.clip_norm", Description: "Per-tensor gradient norm clip"},
	FlagSeed:           {Name: "seed", ViperKey: "train.seed", Description: "Random seed for split, init and shuffling"},
	FlagWorkers:        {Name: "workers", Shorthand: "w", ViperKey: "train.workers", Description: "Parallel workers per batch"},
	FlagOutputDir:      {Name: "output-dir", Shorthand: "o", ViperKey: "output.dir", Description: "Directory for the trained model and reports"},
	FlagModelDir:       {Name: "model-dir", Shorthand: "d", ViperKey: "output.dir", Description: "Directory holding a trained model"},
	FlagStorage:        {Name: "storage", ViperKey: "storage.provider", Description: "Run history backend (sqlite, postgres, memory)"},
	FlagSQLite:         {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the run history SQLite database"},
	FlagPostgres:       {Name: "postgres", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string for run history"},
	FlagVectorProvider: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Sentence index backend (sqlite-vec, qdrant)"},
	FlagVectorTarget:   {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Sentence index database path or qdrant host:port"},
	FlagEventsProvider: {Name: "events-provider", ViperKey: "events.provider", Description: "Training event sink (none, kafka)"},
	FlagEventsBrokers:  {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
	FlagEventsTopic:    {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for training events"},
	FlagAPIListen:      {Name: "listen", Shorthand: "a", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, key string, target *float64) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetFloat64(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float64Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only NewDefaultConfig values.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
