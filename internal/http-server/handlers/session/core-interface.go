package session

import (
	"ScanFlow/entity"
	"ScanFlow/scenario"
	"context"
)

type Core interface {
	StartSession(ctx context.Context, req entity.StartSession) (scenario.Snapshot, error)
	Dispatch(ctx context.Context, id string, event scenario.Event, payload scenario.Payload, wait bool) (scenario.Snapshot, error)
	Snapshot(id string) (scenario.Snapshot, error)
	EndSession(ctx context.Context, id string) error
	StreamURL(id string) string
}
