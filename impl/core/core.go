package core

import (
	"ScanFlow/entity"
	"ScanFlow/internal/lib/sl"
	"ScanFlow/scenario"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Repository interface {
	CheckApiKey(key string) (string, error)
	GenerateApiKey(username string) (string, error)
	SaveSession(ctx context.Context, rec *entity.SessionRecord) error
	LoadSession(ctx context.Context, scenarioKey, device string) (*entity.SessionRecord, error)
	DeleteSession(ctx context.Context, scenarioKey, device string) error
}

type Registry interface {
	Get(key string) (scenario.Entry, error)
	List() []scenario.Entry
}

// Broadcaster pushes session snapshots to subscribed screens.
type Broadcaster interface {
	BroadcastSnapshot(s scenario.Snapshot)
	CloseSession(id string)
}

type session struct {
	id       string
	device   string
	scenario string
	machine  *scenario.Machine
	// saved guards persistence of this session.
	saved sync.Mutex
}

type Core struct {
	registry    Registry
	gateway     scenario.Gateway
	exec        scenario.Executor
	repo        Repository
	hub         Broadcaster
	authKey     string
	failureText string
	waitTimeout time.Duration
	streamKey   string
	streamTTL   time.Duration
	mu          sync.RWMutex
	sessions    map[string]*session
	log         *slog.Logger
}

func New(log *slog.Logger, registry Registry, gw scenario.Gateway) *Core {
	return &Core{
		registry: registry,
		gateway:  gw,
		sessions: make(map[string]*session),
		log:      log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetExecutor(exec scenario.Executor) {
	c.exec = exec
}

func (c *Core) SetBroadcaster(hub Broadcaster) {
	c.hub = hub
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

func (c *Core) SetFailureMessage(text string) {
	c.failureText = text
}

// SetWaitTimeout bounds how long Dispatch waits for a call when asked to.
func (c *Core) SetWaitTimeout(d time.Duration) {
	c.waitTimeout = d
}

// SetStreamSigning enables signed socket URLs for started sessions.
func (c *Core) SetStreamSigning(secret string, ttl time.Duration) {
	c.streamKey = secret
	c.streamTTL = ttl
}

func (c *Core) lookup(id string) (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Shutdown closes every open session.
func (c *Core) Shutdown() {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*session)
	c.mu.Unlock()

	for _, s := range sessions {
		s.machine.Close()
	}
	activeSessions.Set(0)
	c.log.Info("sessions closed", slog.Int("count", len(sessions)))
}
