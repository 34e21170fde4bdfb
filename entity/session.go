package entity

import (
	"ScanFlow/internal/lib/validate"
	"ScanFlow/scenario"
	"net/http"
	"time"
)

// SessionRecord is the last known position of a device in a scenario.
// Data and Vars are stored as a JSON document by the session store.
type SessionRecord struct {
	Scenario  string                               `json:"scenario" bson:"scenario"`
	Device    string                               `json:"device" bson:"device"`
	SessionID string                               `json:"session_id" bson:"session_id"`
	State     scenario.StateName                   `json:"state" bson:"state"`
	Data      map[scenario.StateName]scenario.Data `json:"data,omitempty" bson:"-"`
	Vars      map[string]any                       `json:"vars,omitempty" bson:"-"`
	UpdatedAt time.Time                            `json:"updated_at" bson:"updated_at"`
}

// Saved converts the record into a resumable machine position.
func (s *SessionRecord) Saved() scenario.Saved {
	return scenario.Saved{State: s.State, Data: s.Data, Vars: s.Vars}
}

// SessionStarted answers a start request. StreamURL is a signed socket path
// for screens that do not hold an API key.
type SessionStarted struct {
	scenario.Snapshot
	StreamURL string `json:"stream_url,omitempty"`
}

// StartSession is the body of a session start request.
type StartSession struct {
	Scenario string `json:"scenario" validate:"required"`
	Device   string `json:"device" validate:"omitempty,max=128"`
	// Resume restores the last saved position of the device.
	Resume bool `json:"resume"`
}

func (s *StartSession) Bind(_ *http.Request) error {
	return validate.Struct(s)
}

// SessionEvent is a user action dispatched into a session.
type SessionEvent struct {
	Event   scenario.Event   `json:"event" validate:"required"`
	Payload scenario.Payload `json:"payload"`
	// Wait blocks the request until the started call resolves.
	Wait bool `json:"wait"`
}

func (e *SessionEvent) Bind(_ *http.Request) error {
	return validate.Struct(e)
}

// ScenarioInfo describes a registered scenario.
type ScenarioInfo struct {
	Key     string                                   `json:"key"`
	Route   string                                   `json:"route"`
	Initial scenario.StateName                       `json:"initial"`
	States  []scenario.StateName                     `json:"states"`
	Screens map[scenario.StateName]*scenario.Display `json:"screens,omitempty"`
}
