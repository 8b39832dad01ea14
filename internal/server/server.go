package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsgraph/backend/internal/queue"
	mid "github.com/opsgraph/backend/internal/server/middleware"
	"github.com/opsgraph/backend/internal/storage"
	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/ai"
	oai "github.com/opsgraph/backend/pkg/ai/ollama"
	gai "github.com/opsgraph/backend/pkg/ai/openai"
	"github.com/opsgraph/backend/pkg/logger"
	graphquery "github.com/opsgraph/backend/pkg/query"
	neo4jstore "github.com/opsgraph/backend/pkg/store/neo4j"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewAIClient builds the configured AI backend. AI_ADAPTER selects
// between an Ollama server and any OpenAI-compatible endpoint.
func NewAIClient() ai.GraphAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var key *keyfunc.Keyfunc
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	graphStore, err := neo4jstore.NewGraphDBStorage(ctx, neo4jstore.NewGraphDBStorageParams{
		URI:      util.GetEnv("NEO4J_URI"),
		Username: util.GetEnv("NEO4J_USER"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
	if err != nil {
		logger.Fatal("Failed to connect to graph database", "err", err)
	}
	defer graphStore.Close(ctx)

	if err := graphStore.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure graph schema", "err", err)
	}

	vectorIndex, closeVectors, err := storage.NewVectorIndex(ctx, graphStore)
	if err != nil {
		logger.Fatal("Failed to create vector index", "err", err)
	}
	defer closeVectors()

	aiClient := NewAIClient()

	graphStrategy, err := graphquery.NewGraphQueryStrategy(ctx, graphquery.NewGraphQueryStrategyParams{
		AIClient:    aiClient,
		StoreClient: graphStore,
	})
	if err != nil {
		logger.Fatal("Failed to create graph query strategy", "err", err)
	}
	vectorStrategy, err := graphquery.NewSimilarityStrategy(graphquery.NewSimilarityStrategyParams{
		AIClient:    aiClient,
		VectorIndex: vectorIndex,
	})
	if err != nil {
		logger.Fatal("Failed to create similarity strategy", "err", err)
	}
	router, err := graphquery.NewRouter(graphquery.NewRouterParams{
		Graph:          graphStrategy,
		Vector:         vectorStrategy,
		VectorTriggers: util.GetEnvList("QUERY_VECTOR_TRIGGERS", nil),
	})
	if err != nil {
		logger.Fatal("Failed to create query router", "err", err)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	app := &mid.App{
		GraphStore:     graphStore,
		VectorIndex:    vectorIndex,
		Queue:          ch,
		Key:            key,
		S3:             s3,
		AiClient:       aiClient,
		Router:         router,
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
