package graph

// GraphClient is the main client for building the incident knowledge graph.
// It manages ingest batching, embedding batching, and token encoding for
// the passage indexing phase.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	tokenEncoder    string
	ingestBatchSize int
	embedBatchSize  int
	embedDimensions int
	maxRetries      int
	incremental     bool
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// TokenEncoder specifies the encoding used to budget embedding batches.
// IngestBatchSize controls how many incident records go into one graph
// write transaction.
// EmbedBatchSize controls how many passages go into one embedding request.
// EmbedDimensions is the dimension count of the embedding model.
// Incremental restricts passage indexing to passages without an embedding.
type NewGraphClientParams struct {
	TokenEncoder    string
	IngestBatchSize int
	EmbedBatchSize  int
	EmbedDimensions int
	MaxRetries      int
	Incremental     bool
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	params := graph.NewGraphClientParams{
//		TokenEncoder:    "o200k_base",
//		IngestBatchSize: 100,
//		EmbedBatchSize:  64,
//		EmbedDimensions: 1024,
//	}
//	client, err := graph.NewGraphClient(params)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Returns a pointer to GraphClient and an error if initialization fails.
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	ingestBatch := params.IngestBatchSize
	if ingestBatch <= 0 {
		ingestBatch = 100
	}
	embedBatch := params.EmbedBatchSize
	if embedBatch <= 0 {
		embedBatch = 64
	}
	dims := params.EmbedDimensions
	if dims <= 0 {
		dims = 1024
	}

	g := &GraphClient{
		tokenEncoder:    params.TokenEncoder,
		ingestBatchSize: ingestBatch,
		embedBatchSize:  embedBatch,
		embedDimensions: dims,
		maxRetries:      maxRetries,
		incremental:     params.Incremental,
	}

	return g, nil
}
