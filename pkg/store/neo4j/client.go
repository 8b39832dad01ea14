package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/opsgraph/backend/pkg/common"
)

// GraphDBStorage implements the store.GraphStore interface on a Neo4j
// database. One instance wraps one driver; sessions are opened per
// operation and every write runs inside a managed transaction.
type GraphDBStorage struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewGraphDBStorageParams defines the connection parameters for creating
// a new GraphDBStorage. URI, Username and Password are required; Database
// defaults to "neo4j".
type NewGraphDBStorageParams struct {
	URI      string
	Username string
	Password string
	Database string

	TimeoutSec  int
	MaxPoolSize int
}

// NewGraphDBStorage creates a Neo4j-backed graph store and verifies
// connectivity. Missing connection parameters and unreachable servers fail
// here, at construction, not at first use.
func NewGraphDBStorage(ctx context.Context, params NewGraphDBStorageParams) (*GraphDBStorage, error) {
	if params.URI == "" {
		return nil, common.ConfigurationErrorf("neo4j uri is required")
	}
	if params.Username == "" || params.Password == "" {
		return nil, common.ConfigurationErrorf("neo4j credentials are required")
	}

	database := params.Database
	if database == "" {
		database = "neo4j"
	}
	timeoutSec := params.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	auth := neo4j.BasicAuth(params.Username, params.Password, "")
	driver, err := neo4j.NewDriverWithContext(params.URI, auth, func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
		cfg.SocketConnectTimeout = time.Duration(timeoutSec) * time.Second
	})
	if err != nil {
		return nil, common.ConfigurationErrorf("init neo4j driver: %v", err)
	}

	vCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(vCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, common.ServiceUnavailableErrorf("verify neo4j connectivity: %v", err)
	}

	return &GraphDBStorage{
		driver:   driver,
		database: database,
	}, nil
}

// Close shuts down the underlying driver.
func (s *GraphDBStorage) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	return err
}

func (s *GraphDBStorage) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
}

func (s *GraphDBStorage) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
}
