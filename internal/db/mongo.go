package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"shopnex/internal/config"
)

// ErrMongoUnavailable wraps the failure of the one connection attempt a
// MongoConnector makes.
var ErrMongoUnavailable = errors.New("mongo: connection unavailable")

// MongoConnector establishes a single process-wide Mongo client. The first
// call to Connect dials; the outcome, success or failure, is kept for the
// lifetime of the connector and never retried.
type MongoConnector struct {
	cfg  config.MongoConfig
	dial func(ctx context.Context) (*mongo.Client, error)

	mu     sync.Mutex
	done   bool
	client *mongo.Client
	err    error
}

func NewMongoConnector(cfg config.MongoConfig) *MongoConnector {
	c := &MongoConnector{cfg: cfg}
	c.dial = c.connect
	return c
}

func (c *MongoConnector) connect(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(c.cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1).
			SetStrict(true).
			SetDeprecationErrors(true))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Connect returns the shared client, dialing on the first call only. The dial
// ignores ctx cancellation and is bounded by the connect timeout alone.
func (c *MongoConnector) Connect(ctx context.Context) (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return c.client, c.err
	}
	c.done = true
	ctx = context.WithoutCancel(ctx)
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}
	client, err := c.dial(ctx)
	if err != nil {
		c.err = fmt.Errorf("%w: %v", ErrMongoUnavailable, err)
		slog.Error("mongo_connect_failed", "error", err)
		return nil, c.err
	}
	c.client = client
	slog.Info("mongo_connected", "database", c.cfg.Database)
	return c.client, nil
}

// Collection returns the configured products collection.
func (c *MongoConnector) Collection(ctx context.Context) (*mongo.Collection, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(c.cfg.Database).Collection(c.cfg.Collection), nil
}

// Close disconnects the client if one was established.
func (c *MongoConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
