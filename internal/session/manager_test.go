package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"smartclassroom/internal/assistant"
	"smartclassroom/internal/chat"
	"smartclassroom/internal/simulator"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func newTestManager(opts ...Option) *Manager {
	return NewManager(
		func() *simulator.Store {
			return simulator.New(simulator.WithSeed(1, 2), simulator.WithInterval(time.Millisecond))
		},
		func(s *simulator.Store) *chat.Panel {
			return chat.NewPanel(assistant.NewGateway(nil), s)
		},
		opts...,
	)
}

func TestManager_StartsAtLogin(t *testing.T) {
	m := newTestManager()

	assert.Equal(t, Status{View: ViewLogin}, m.Status())

	_, err := m.Store()
	assert.ErrorIs(t, err, ErrOutsideScope)
	_, err = m.Panel()
	assert.ErrorIs(t, err, ErrOutsideScope)
	assert.EqualError(t, ErrOutsideScope, "classroom data requested outside an active classroom session")
}

func TestManager_LoginOpensScope(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	require.NoError(t, m.Login(RoleAdmin))
	assert.Equal(t, Status{View: ViewDashboard, Role: RoleAdmin, Active: true}, m.Status())

	store, err := m.Store()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.Ticks() > 2 }, time.Second, time.Millisecond)

	panel, err := m.Panel()
	require.NoError(t, err)
	assert.Len(t, panel.Transcript(), 1)

	assert.ErrorIs(t, m.Login(RoleStudent), ErrAlreadyActive)
}

func TestManager_LogoutStopsTimer(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.Login(RoleStudent))
	store, err := m.Store()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return store.Ticks() > 0 }, time.Second, time.Millisecond)

	require.NoError(t, m.Logout())
	stopped := store.Ticks()
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, stopped, store.Ticks())
	assert.Equal(t, Status{View: ViewLogin}, m.Status())
	_, err = m.Store()
	assert.ErrorIs(t, err, ErrOutsideScope)

	require.NoError(t, m.Logout(), "logging out twice is harmless")
}

func TestManager_NewScopeResetsState(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	require.NoError(t, m.Login(RoleStudent))
	first, _ := m.Store()
	firstPanel, _ := m.Panel()
	_, err := firstPanel.Submit(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, firstPanel.Transcript(), 3)
	require.NoError(t, m.Logout())

	require.NoError(t, m.Login(RoleStudent))
	second, _ := m.Store()
	secondPanel, _ := m.Panel()
	assert.NotSame(t, first, second)
	assert.Len(t, secondPanel.Transcript(), 1, "transcript lives only as long as its session")
}

func TestManager_Navigate(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	assert.ErrorIs(t, m.Navigate(ViewMonitor), ErrOutsideScope)

	require.NoError(t, m.Login(RoleStudent))
	require.NoError(t, m.Navigate(ViewMonitor))
	assert.Equal(t, ViewMonitor, m.Status().View)
	require.NoError(t, m.Navigate(ViewDashboard))
	assert.Equal(t, ViewDashboard, m.Status().View)

	assert.Error(t, m.Navigate(View("settings")))

	require.NoError(t, m.Navigate(ViewLogin))
	assert.Equal(t, Status{View: ViewLogin}, m.Status())
}

func TestManager_RejectsUnknownRole(t *testing.T) {
	m := newTestManager()
	assert.Error(t, m.Login(Role("janitor")))
	assert.False(t, m.Status().Active)
}

func TestManager_WorkersFollowScope(t *testing.T) {
	var started, stopped atomic.Int32
	m := newTestManager(WithWorker(func(ctx context.Context, _ *simulator.Store) error {
		started.Add(1)
		<-ctx.Done()
		stopped.Add(1)
		return nil
	}))

	require.NoError(t, m.Login(RoleAdmin))
	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, m.Logout())
	assert.Equal(t, int32(1), stopped.Load())
}

func TestManager_WorkerFailureIsReported(t *testing.T) {
	boom := errors.New("boom")
	m := newTestManager(WithWorker(func(context.Context, *simulator.Store) error {
		return boom
	}))

	require.NoError(t, m.Login(RoleAdmin))
	assert.ErrorIs(t, m.Logout(), boom)
}

func TestManager_WorkerFailureKeepsClassroomTicking(t *testing.T) {
	boom := errors.New("boom")
	var failed atomic.Bool
	m := newTestManager(WithWorker(func(context.Context, *simulator.Store) error {
		failed.Store(true)
		return boom
	}))

	require.NoError(t, m.Login(RoleAdmin))
	require.Eventually(t, failed.Load, time.Second, time.Millisecond)
	store, err := m.Store()
	require.NoError(t, err)
	after := store.Ticks()

	require.Eventually(t, func() bool { return store.Ticks() > after+2 }, time.Second, time.Millisecond)
	assert.True(t, m.Status().Active)
	assert.ErrorIs(t, m.Logout(), boom)
}

func TestManager_NormalisesRoleAndView(t *testing.T) {
	m := newTestManager()
	defer m.Close()

	require.NoError(t, m.Login(Role(" ADMIN ")))
	assert.Equal(t, RoleAdmin, m.Status().Role)

	require.NoError(t, m.Navigate(View("Monitor")))
	assert.Equal(t, ViewMonitor, m.Status().View)

	require.NoError(t, m.Navigate(View("Login")))
	assert.Equal(t, Status{View: ViewLogin}, m.Status())
	_, err := m.Store()
	assert.ErrorIs(t, err, ErrOutsideScope)
}

func TestParse(t *testing.T) {
	v, err := ParseView(" Monitor ")
	require.NoError(t, err)
	assert.Equal(t, ViewMonitor, v)

	r, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestManager_Stream(t *testing.T) {
	m := newTestManager()

	_, _, err := m.Stream(1)
	assert.ErrorIs(t, err, ErrOutsideScope)

	require.NoError(t, m.Login(RoleStudent))
	ch, stop, err := m.Stream(4)
	require.NoError(t, err)
	defer stop()

	select {
	case snap := <-ch:
		assert.False(t, snap.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no snapshot streamed")
	}

	require.NoError(t, m.Logout())
	require.Eventually(t, func() bool {
		for {
			select {
			case _, open := <-ch:
				if !open {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, time.Millisecond, "stream closes with its scope")
}

func TestManager_StreamStop(t *testing.T) {
	m := newTestManager()
	defer m.Close()
	require.NoError(t, m.Login(RoleStudent))

	ch, stop, err := m.Stream(1)
	require.NoError(t, err)
	stop()
	stop()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}
