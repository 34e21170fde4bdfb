package repository

import (
	"ScanFlow/internal/config"
	"ScanFlow/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	deviceKeysCollection = "device-keys"
	sessionsCollection   = "sessions"

	connectTimeout = 10 * time.Second
)

// MongoDB is the session store and device key registry. Every operation
// opens its own connection.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
	log           *slog.Logger
}

// NewMongoClient returns nil when mongo is disabled in the config.
func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	if conf.Mongo.Database == "" {
		return nil, fmt.Errorf("mongo database name is empty")
	}
	uri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)
	if conf.Mongo.User != "" {
		opts.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: opts,
		database:      conf.Mongo.Database,
		log:           logger.With(sl.Module("mongodb"), slog.String("database", conf.Mongo.Database)),
	}, nil
}

// withCollection connects, runs fn against the named collection and
// disconnects again.
func (m *MongoDB) withCollection(ctx context.Context, name string, fn func(*mongo.Collection) error) error {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return fmt.Errorf("mongodb connect: %w", err)
	}
	defer func() {
		if err := connection.Disconnect(context.WithoutCancel(ctx)); err != nil {
			m.log.Debug("mongodb disconnect", sl.Err(err))
		}
	}()

	if err = fn(connection.Database(m.database).Collection(name)); err != nil {
		m.log.With(
			slog.String("collection", name),
			sl.Err(err),
		).Debug("mongodb operation failed")
	}
	return err
}
