package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/opsgraph/backend/internal/batch"
	"github.com/opsgraph/backend/internal/server"
	"github.com/opsgraph/backend/internal/storage"
	"github.com/opsgraph/backend/internal/util"
	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/graph"
	"github.com/opsgraph/backend/pkg/logger"
	"github.com/opsgraph/backend/pkg/logger/console"
	graphquery "github.com/opsgraph/backend/pkg/query"
	"github.com/opsgraph/backend/pkg/store"
	neo4jstore "github.com/opsgraph/backend/pkg/store/neo4j"
)

// The console binary drives the pipeline without the HTTP server:
//
//	console ingest <source>   build the graph from a batch file
//	console ask               interactive question loop
func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := "ask"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	graphStore, err := neo4jstore.NewGraphDBStorage(ctx, neo4jstore.NewGraphDBStorageParams{
		URI:      util.GetEnv("NEO4J_URI"),
		Username: util.GetEnv("NEO4J_USER"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
	if err != nil {
		logger.Fatal("Unable to connect to graph database", "err", err)
	}
	defer graphStore.Close(ctx)

	vectorIndex, closeVectors, err := storage.NewVectorIndex(ctx, graphStore)
	if err != nil {
		logger.Fatal("Failed to create vector index", "err", err)
	}
	defer closeVectors()

	aiClient := server.NewAIClient()

	switch command {
	case "ingest":
		if len(os.Args) < 3 {
			logger.Fatal("Usage: console ingest <source>")
		}
		runIngest(ctx, os.Args[2], aiClient, graphStore, vectorIndex)
	case "ask":
		runAsk(ctx, aiClient, graphStore, vectorIndex)
	default:
		logger.Fatal("Unknown command", "command", command)
	}
}

func runIngest(
	ctx context.Context,
	source string,
	aiClient ai.GraphAIClient,
	graphStore *neo4jstore.GraphDBStorage,
	vectorIndex store.VectorIndex,
) {
	records, err := batch.LoadRecords(ctx, storage.NewS3Client(ctx), source)
	if err != nil {
		logger.Fatal("Failed to load batch", "source", source, "err", err)
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		TokenEncoder:    util.GetEnvString("AI_TOKEN_ENCODER", "o200k_base"),
		IngestBatchSize: int(util.GetEnvNumeric("INGEST_BATCH_SIZE", 100)),
		EmbedBatchSize:  int(util.GetEnvNumeric("EMBED_BATCH_SIZE", 64)),
		EmbedDimensions: int(util.GetEnvNumeric("AI_EMBED_DIM", 1024)),
		Incremental:     util.GetEnvBool("INDEX_INCREMENTAL", false),
	})
	if err != nil {
		logger.Fatal("Failed to create graph client", "err", err)
	}

	summary, err := client.BuildGraph(ctx, records, aiClient, graphStore, vectorIndex)
	if err != nil {
		logger.Fatal("Graph build failed", "err", err)
	}

	for _, rejected := range summary.Ingest.Rejected {
		logger.Warn("Rejected record", "id", rejected.ID, "key", rejected.Key, "reason", rejected.Reason)
	}
	logger.Info("Graph built",
		"incidents", summary.Ingest.IncidentsProcessed,
		"rejected", len(summary.Ingest.Rejected),
		"clone_edges", summary.CloneEdges,
		"passages_indexed", summary.Index.PassagesIndexed,
	)
}

func runAsk(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	graphStore *neo4jstore.GraphDBStorage,
	vectorIndex store.VectorIndex,
) {
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

	fmt.Println("Ask a question (exit or quit to leave):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return
		}

		answer, err := router.Ask(ctx, question)
		if err != nil {
			logger.Error("Failed to answer question", "err", err)
			continue
		}

		fmt.Printf("[%s]\n", answer.Strategy)
		if answer.Error != "" {
			fmt.Printf("error: %s\n", answer.Error)
		}
		if answer.GeneratedQuery != "" {
			fmt.Printf("query: %s\n", answer.GeneratedQuery)
		}
		for _, row := range answer.Rows {
			fmt.Printf("%v\n", row)
		}
		if answer.Text != "" {
			fmt.Println(answer.Text)
		}
		fmt.Println()
	}
}
