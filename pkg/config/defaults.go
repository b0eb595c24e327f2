package config

const (
	defaultDataName      = "sick"
	defaultDataFile      = "Datasets/SICK.tsv"
	defaultTrainingRatio = 0.8

	defaultEmbeddingFile = "Embeddings/GoogleNews-vectors-negative300.bin.gz"

	defaultMaxLen         = 20
	defaultHiddenSize     = 50
	defaultDistanceMetric = "manhattan"

	defaultBatchSize    = 32
	defaultNumIters     = 7
	defaultLearningRate = 1.0
	defaultClipNorm     = 1.25
	defaultSeed         = 1
	defaultWorkers      = 4

	defaultOutputDir = "Models"

	defaultStorageProvider = "sqlite"

	defaultVectorProvider   = "sqlite-vec"
	defaultVectorCollection = "siamese_sentences"

	defaultEventsProvider = "none"
	defaultEventsTopic    = "siamese.training"

	defaultAPIListen = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Data: DataConfig{
			Name:          defaultDataName,
			File:          defaultDataFile,
			TrainingRatio: defaultTrainingRatio,
		},
		Embedding: EmbeddingConfig{
			File: defaultEmbeddingFile,
		},
		Model: ModelConfig{
			MaxLen:         defaultMaxLen,
			HiddenSize:     defaultHiddenSize,
			DistanceMetric: defaultDistanceMetric,
		},
		Train: TrainConfig{
			BatchSize:    defaultBatchSize,
			NumIters:     defaultNumIters,
			LearningRate: defaultLearningRate,
			ClipNorm:     defaultClipNorm,
			Seed:         defaultSeed,
			Workers:      defaultWorkers,
		},
		Output: OutputConfig{
			Dir: defaultOutputDir,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
