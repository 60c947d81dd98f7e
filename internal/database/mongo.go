package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// MongoOptions tunes the client pool
type MongoOptions struct {
	Timeout time.Duration
	MaxPool uint64
	MinPool uint64
}

// DefaultMongoOptions returns the pool settings used by the api server
func DefaultMongoOptions() MongoOptions {
	return MongoOptions{
		Timeout: 10 * time.Second,
		MaxPool: 100,
		MinPool: 5,
	}
}

func Connect(uri, dbName string) (*MongoDB, error) {
	return ConnectWithOptions(uri, dbName, DefaultMongoOptions())
}

func ConnectWithOptions(uri, dbName string, opts MongoOptions) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(opts.MaxPool).
		SetMinPoolSize(opts.MinPool).
		SetServerSelectionTimeout(opts.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping to verify the connection before handing it out
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
