package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrKeyNotFound = errors.New("api key not found")

type deviceKey struct {
	Device   string    `bson:"device"`
	Key      string    `bson:"key"`
	Created  time.Time `bson:"created"`
	LastSeen time.Time `bson:"last_seen,omitempty"`
}

const keyOpTimeout = 5 * time.Second

// CheckApiKey returns the device owning key and stamps its last use.
func (m *MongoDB) CheckApiKey(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keyOpTimeout)
	defer cancel()

	var doc deviceKey
	err := m.withCollection(ctx, deviceKeysCollection, func(c *mongo.Collection) error {
		return c.FindOneAndUpdate(ctx,
			bson.D{{"key", key}},
			bson.D{{"$set", bson.D{{"last_seen", time.Now()}}}},
		).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && doc.Device == "") {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Device, nil
}

// GenerateApiKey returns the key of device, creating it on first use. The
// upsert keeps concurrent first calls on one key.
func (m *MongoDB) GenerateApiKey(device string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keyOpTimeout)
	defer cancel()

	var doc deviceKey
	err := m.withCollection(ctx, deviceKeysCollection, func(c *mongo.Collection) error {
		return c.FindOneAndUpdate(ctx,
			bson.D{{"device", device}},
			bson.D{{"$setOnInsert", bson.D{
				{"key", uuid.NewString()},
				{"created", time.Now()},
			}}},
			options.FindOneAndUpdate().
				SetUpsert(true).
				SetReturnDocument(options.After),
		).Decode(&doc)
	})
	if err != nil {
		return "", fmt.Errorf("issue key for %s: %w", device, err)
	}
	return doc.Key, nil
}
