package core

import (
	"ScanFlow/entity"
	"ScanFlow/internal/lib/sl"
	"ScanFlow/scenario"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
)

// StartSession opens a session on the requested scenario. When resume is set
// and the device has a saved position, the session continues from it.
func (c *Core) StartSession(ctx context.Context, req entity.StartSession) (scenario.Snapshot, error) {
	entry, err := c.registry.Get(req.Scenario)
	if err != nil {
		return scenario.Snapshot{}, err
	}

	s := &session{
		id:       uuid.NewString(),
		device:   req.Device,
		scenario: entry.Key,
	}
	log := c.log.With(
		slog.String("session_id", s.id),
		slog.String("scenario", entry.Key),
		slog.String("device", req.Device),
	)

	opts := []scenario.Option{
		scenario.WithSessionID(s.id),
		scenario.WithLogger(c.log),
		scenario.WithFailureMessage(c.failureText),
		scenario.WithListener(func(snap scenario.Snapshot) { c.onChange(s, snap) }),
	}
	if c.exec != nil {
		opts = append(opts, scenario.WithExecutor(c.exec))
	}

	resumed := false
	if req.Resume && req.Device != "" && c.repo != nil {
		rec, err := c.repo.LoadSession(ctx, entry.Key, req.Device)
		if err != nil {
			log.Warn("load saved session", sl.Err(err))
		}
		if rec != nil {
			opts = append(opts, scenario.WithRestore(rec.Saved()))
			resumed = true
			log = log.With(slog.String("restored_state", string(rec.State)))
		}
	}

	s.machine = scenario.NewMachine(entry, c.gateway, opts...)

	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()
	activeSessions.Inc()
	sessionsStarted.WithLabelValues(entry.Key, strconv.FormatBool(resumed)).Inc()

	if err = s.machine.Start(); err != nil {
		log.Error("session start", sl.Err(err))
		c.drop(s)
		return scenario.Snapshot{}, err
	}

	log.Info("session started", slog.Bool("resumed", resumed))
	return s.machine.Current(), nil
}

// Dispatch delivers an event to a session. With wait set it returns once the
// call started by the event has resolved.
func (c *Core) Dispatch(ctx context.Context, id string, event scenario.Event, payload scenario.Payload, wait bool) (scenario.Snapshot, error) {
	s, err := c.lookup(id)
	if err != nil {
		return scenario.Snapshot{}, err
	}

	err = s.machine.Dispatch(event, payload)
	if err != nil && !errors.Is(err, scenario.ErrBusy) {
		c.log.With(
			slog.String("session_id", id),
			slog.String("event", string(event)),
			sl.Err(err),
		).Error("dispatch")
		return s.machine.Current(), err
	}

	if wait && err == nil {
		if c.waitTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.waitTimeout)
			defer cancel()
		}
		if werr := s.machine.Settle(ctx); werr != nil {
			c.log.With(
				slog.String("session_id", id),
				sl.Err(werr),
			).Debug("call still in flight")
		}
	}
	return s.machine.Current(), err
}

// Snapshot returns the current projection of a session.
func (c *Core) Snapshot(id string) (scenario.Snapshot, error) {
	s, err := c.lookup(id)
	if err != nil {
		return scenario.Snapshot{}, err
	}
	return s.machine.Current(), nil
}

// EndSession tears a session down and forgets the saved position of its device.
func (c *Core) EndSession(ctx context.Context, id string) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.drop(s)

	if c.repo != nil && s.device != "" {
		s.saved.Lock()
		err = c.repo.DeleteSession(ctx, s.scenario, s.device)
		s.saved.Unlock()
		if err != nil {
			return fmt.Errorf("delete saved session: %w", err)
		}
	}
	c.log.With(slog.String("session_id", id)).Info("session ended")
	return nil
}

func (c *Core) drop(s *session) {
	c.mu.Lock()
	_, ok := c.sessions[s.id]
	delete(c.sessions, s.id)
	c.mu.Unlock()

	s.machine.Close()
	if ok {
		activeSessions.Dec()
	}
	if c.hub != nil {
		c.hub.CloseSession(s.id)
	}
}

// Scenarios lists the registered scenarios.
func (c *Core) Scenarios() []entity.ScenarioInfo {
	entries := c.registry.List()
	list := make([]entity.ScenarioInfo, 0, len(entries))
	for _, e := range entries {
		info := entity.ScenarioInfo{
			Key:     e.Key,
			Route:   e.Route,
			Initial: e.Initial,
			States:  e.StateNames(),
			Screens: make(map[scenario.StateName]*scenario.Display),
		}
		for name, def := range e.States {
			if def.Display != nil {
				info.Screens[name] = def.Display
			}
		}
		list = append(list, info)
	}
	return list
}

// onChange persists the session position and pushes the snapshot to screens.
func (c *Core) onChange(s *session, snap scenario.Snapshot) {
	if c.hub != nil {
		c.hub.BroadcastSnapshot(snap)
	}
	if c.repo == nil || s.device == "" {
		return
	}

	// EndSession closes the machine before deleting under the same lock.
	s.saved.Lock()
	defer s.saved.Unlock()
	if !s.machine.Alive() {
		return
	}

	saved := s.machine.Export()
	rec := &entity.SessionRecord{
		Scenario:  s.scenario,
		Device:    s.device,
		SessionID: s.id,
		State:     saved.State,
		Data:      saved.Data,
		Vars:      saved.Vars,
	}
	if err := c.repo.SaveSession(context.Background(), rec); err != nil {
		c.log.With(
			slog.String("session_id", s.id),
			sl.Err(err),
		).Warn("save session")
	}
}
