package repository

import (
	"ScanFlow/entity"
	"ScanFlow/scenario"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sessionDocument keeps the state data bags as JSON so they decode to the
// same types the gateway produces.
type sessionDocument struct {
	entity.SessionRecord `bson:",inline"`
	Position             string `bson:"position"`
}

type position struct {
	Data map[string]map[string]any `json:"data,omitempty"`
	Vars map[string]any            `json:"vars,omitempty"`
}

// SaveSession persists a device position by {scenario, device}.
func (m *MongoDB) SaveSession(ctx context.Context, rec *entity.SessionRecord) error {
	doc, err := encodeSession(rec)
	if err != nil {
		return err
	}

	return m.withCollection(ctx, sessionsCollection, func(c *mongo.Collection) error {
		_, err := c.UpdateOne(ctx,
			sessionFilter(rec.Scenario, rec.Device),
			bson.D{{"$set", doc}},
			options.Update().SetUpsert(true),
		)
		return err
	})
}

// LoadSession retrieves a device position by {scenario, device}. It returns
// nil when none was saved.
func (m *MongoDB) LoadSession(ctx context.Context, scenarioKey, device string) (*entity.SessionRecord, error) {
	var doc sessionDocument
	err := m.withCollection(ctx, sessionsCollection, func(c *mongo.Collection) error {
		return c.FindOne(ctx, sessionFilter(scenarioKey, device)).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(&doc)
}

// DeleteSession removes a device position by {scenario, device}.
func (m *MongoDB) DeleteSession(ctx context.Context, scenarioKey, device string) error {
	return m.withCollection(ctx, sessionsCollection, func(c *mongo.Collection) error {
		_, err := c.DeleteOne(ctx, sessionFilter(scenarioKey, device))
		return err
	})
}

func sessionFilter(scenarioKey, device string) bson.D {
	return bson.D{{"scenario", scenarioKey}, {"device", device}}
}

func encodeSession(rec *entity.SessionRecord) (*sessionDocument, error) {
	rec.UpdatedAt = time.Now()

	pos := position{Vars: rec.Vars}
	if len(rec.Data) > 0 {
		pos.Data = make(map[string]map[string]any, len(rec.Data))
		for state, d := range rec.Data {
			pos.Data[string(state)] = d
		}
	}
	raw, err := json.Marshal(pos)
	if err != nil {
		return nil, fmt.Errorf("encode session position: %w", err)
	}
	return &sessionDocument{SessionRecord: *rec, Position: string(raw)}, nil
}

func decodeSession(doc *sessionDocument) (*entity.SessionRecord, error) {
	rec := doc.SessionRecord
	if doc.Position == "" {
		return &rec, nil
	}

	var pos position
	if err := json.Unmarshal([]byte(doc.Position), &pos); err != nil {
		return nil, fmt.Errorf("decode session position: %w", err)
	}
	rec.Vars = pos.Vars
	if len(pos.Data) > 0 {
		rec.Data = make(map[scenario.StateName]scenario.Data, len(pos.Data))
		for state, d := range pos.Data {
			rec.Data[scenario.StateName(state)] = d
		}
	}
	return &rec, nil
}
