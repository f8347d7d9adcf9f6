// Package session switches between the dashboard views and owns the
// lifetime of the classroom data behind them.
//
// Signing in opens a scope: a fresh simulated classroom, its chat panel and
// the workers that follow it. Signing out closes the scope and stops the
// simulation timer. Classroom data is only reachable while a scope is open.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"smartclassroom/internal/chat"
	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
	"smartclassroom/internal/simulator"
)

var (
	// ErrOutsideScope is returned when classroom data is requested while
	// nobody is signed in.
	ErrOutsideScope = errors.New("classroom data requested outside an active classroom session")
	// ErrAlreadyActive is returned by Login while a session is open.
	ErrAlreadyActive = errors.New("a classroom session is already active")
)

// Worker runs alongside the simulation for the lifetime of a scope. It must
// return once ctx is cancelled.
type Worker func(ctx context.Context, store *simulator.Store) error

// Status describes the current view.
type Status struct {
	View   View `json:"view"`
	Role   Role `json:"role,omitempty"`
	Active bool `json:"active"`
}

type scope struct {
	store  *simulator.Store
	panel  *chat.Panel
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Manager tracks the current view and the open scope.
type Manager struct {
	mu    sync.Mutex
	view  View
	role  Role
	scope *scope

	newStore func() *simulator.Store
	newPanel func(*simulator.Store) *chat.Panel
	workers  []Worker
	logger   *zap.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithWorker adds a worker started with every scope.
func WithWorker(w Worker) Option {
	return func(m *Manager) { m.workers = append(m.workers, w) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// NewManager creates a manager showing the login view. newStore and newPanel
// build the classroom data of each scope.
func NewManager(newStore func() *simulator.Store, newPanel func(*simulator.Store) *chat.Panel, opts ...Option) *Manager {
	m := &Manager{
		view:     ViewLogin,
		newStore: newStore,
		newPanel: newPanel,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login opens a scope for role and shows the dashboard.
func (m *Manager) Login(role Role) error {
	r, err := ParseRole(string(role))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scope != nil {
		return ErrAlreadyActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	store := m.newStore()
	sc := &scope{
		store:  store,
		panel:  m.newPanel(store),
		ctx:    ctx,
		cancel: cancel,
		group:  g,
	}
	// A failing worker stops its siblings. The simulation runs until logout.
	g.Go(func() error { return store.Run(ctx) })
	for _, w := range m.workers {
		g.Go(func() error {
			err := w(gctx, store)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("session worker stopped", zap.Error(err))
			}
			return err
		})
	}

	m.scope = sc
	m.role = r
	m.view = ViewDashboard
	m.logger.Info("session opened", zap.String("role", string(r)))
	return nil
}

// Logout closes the open scope, if any, and shows the login view. It waits
// for the simulation and workers to stop.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *Manager) closeLocked() error {
	m.view = ViewLogin
	m.role = ""
	if m.scope == nil {
		return nil
	}

	sc := m.scope
	m.scope = nil
	sc.cancel()
	err := sc.group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("session workers failed", zap.Error(err))
		return err
	}
	m.logger.Info("session closed", zap.Uint64("ticks", sc.store.Ticks()))
	return nil
}

// Navigate switches views. Navigating to the login view signs out.
func (m *Manager) Navigate(view View) error {
	v, err := ParseView(string(view))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v == ViewLogin {
		return m.closeLocked()
	}
	if m.scope == nil {
		return ErrOutsideScope
	}
	m.view = v
	return nil
}

// Status returns the current view.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{View: m.view, Role: m.role, Active: m.scope != nil}
}

// Store returns the simulated classroom of the open scope.
func (m *Manager) Store() (*simulator.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scope == nil {
		return nil, ErrOutsideScope
	}
	return m.scope.store, nil
}

// Panel returns the chat panel of the open scope.
func (m *Manager) Panel() (*chat.Panel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scope == nil {
		return nil, ErrOutsideScope
	}
	return m.scope.panel, nil
}

// Stream subscribes to the ticks of the open scope. The channel is closed
// when the scope closes or stop is called, whichever comes first.
func (m *Manager) Stream(buffer int) (snapshots <-chan models.Snapshot, stop func(), err error) {
	m.mu.Lock()
	sc := m.scope
	m.mu.Unlock()
	if sc == nil {
		return nil, nil, ErrOutsideScope
	}

	ch, unsubscribe := sc.store.Subscribe(buffer)
	stopped := make(chan struct{})
	var once sync.Once
	go func() {
		select {
		case <-sc.ctx.Done():
		case <-stopped:
		}
		unsubscribe()
	}()
	return ch, func() { once.Do(func() { close(stopped) }) }, nil
}

// Close closes any open scope.
func (m *Manager) Close() error {
	return m.Logout()
}
