package ingestion_engine

// IngestConfig holds chunking bounds and worker sizing for the ingestor.
type IngestConfig struct {
	MaxChunkSize int
	MinChunkSize int
	Bucket       string
	Workers      int
	QueueSize    int
}

func (c *IngestConfig) withDefaults() IngestConfig {
	out := IngestConfig{}
	if c != nil {
		out = *c
	}
	if out.MaxChunkSize <= 0 {
		out.MaxChunkSize = DefaultMaxChunkSize
	}
	if out.MinChunkSize < 0 {
		out.MinChunkSize = 0
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 64
	}
	return out
}
