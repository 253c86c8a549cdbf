package sessions_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jrsteele09/go-auth-client/sessions"
)

var ludovic = &sessions.Profile{Email: "admin@test.com", FirstName: "Ludovic", LastName: "Randu"}

func receive(t *testing.T, ch <-chan sessions.Snapshot) sessions.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}
	return sessions.Snapshot{}
}

func requireNothing(t *testing.T, ch <-chan sessions.Snapshot) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot %+v", snap)
	default:
	}
}

func TestNewStateIsUnauthenticated(t *testing.T) {
	state := sessions.NewState()
	require.Equal(t, sessions.Snapshot{}, state.Snapshot())
	require.Equal(t, sessions.StatusUnauthenticated, state.Snapshot().Status)
	require.False(t, state.Snapshot().IsAuthenticated())
}

func TestTransitions(t *testing.T) {
	state := sessions.NewState()

	state.MarkPending()
	require.Equal(t, sessions.StatusUnknown, state.Snapshot().Status)
	require.False(t, state.Snapshot().IsAuthenticated())

	state.SetAuthenticated(ludovic, time.Time{})
	snap := state.Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, "Ludovic Randu", snap.Profile.DisplayName())

	snap.Profile.FirstName = "changed"
	require.Equal(t, "Ludovic", state.Snapshot().Profile.FirstName)

	state.SetUnauthenticated()
	require.Equal(t, sessions.Snapshot{}, state.Snapshot())
}

func TestResetRestoresInitialValue(t *testing.T) {
	state := sessions.NewState()
	initial := state.Snapshot()

	state.SetAuthenticated(ludovic, time.Now().Add(time.Hour))
	state.Reset()
	require.Equal(t, initial, state.Snapshot())
}

func TestSubscribeReceivesCurrentThenChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	state := sessions.NewState()
	updates, cancel := state.Subscribe()
	defer cancel()

	require.Equal(t, sessions.StatusUnauthenticated, receive(t, updates).Status)

	state.SetAuthenticated(ludovic, time.Time{})
	got := receive(t, updates)
	require.Equal(t, sessions.StatusAuthenticated, got.Status)
	require.Equal(t, ludovic.Email, got.Profile.Email)
}

func TestIdempotentTransitionsDoNotNotify(t *testing.T) {
	state := sessions.NewState()
	updates, cancel := state.Subscribe()
	defer cancel()
	receive(t, updates)

	state.SetUnauthenticated()
	requireNothing(t, updates)

	state.SetAuthenticated(ludovic, time.Time{})
	receive(t, updates)
	state.SetAuthenticated(&sessions.Profile{Email: "admin@test.com", FirstName: "Ludovic", LastName: "Randu"}, time.Time{})
	requireNothing(t, updates)
}

func TestSlowSubscriberSeesLatestValue(t *testing.T) {
	state := sessions.NewState()
	updates, cancel := state.Subscribe()
	defer cancel()

	state.MarkPending()
	state.SetAuthenticated(ludovic, time.Time{})
	state.SetUnauthenticated()
	state.MarkPending()

	require.Equal(t, sessions.StatusUnknown, receive(t, updates).Status)
	requireNothing(t, updates)
}

func TestExpiredSessionReportsUnauthenticated(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.NowTimeFunc = func() time.Time { return now }
	defer func() { sessions.NowTimeFunc = time.Now }()

	state := sessions.NewState()
	state.SetAuthenticated(ludovic, now.Add(time.Minute))
	require.True(t, state.Snapshot().IsAuthenticated())

	state.Extend(now.Add(2 * time.Minute))
	require.Equal(t, now.Add(2*time.Minute), state.Snapshot().ExpiresAt)

	now = now.Add(2 * time.Minute)
	require.Equal(t, sessions.Snapshot{}, state.Snapshot())
}

func TestExtendIgnoredWhenNotAuthenticated(t *testing.T) {
	state := sessions.NewState()
	state.Extend(time.Now().Add(time.Hour))
	require.Equal(t, sessions.Snapshot{}, state.Snapshot())
}

func TestCancelAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	state := sessions.NewState()
	first, cancelFirst := state.Subscribe()
	second, cancelSecond := state.Subscribe()
	defer cancelSecond()

	cancelFirst()
	cancelFirst()
	<-first
	_, ok := <-first
	require.False(t, ok)

	state.Close()
	<-second
	_, ok = <-second
	require.False(t, ok)

	late, cancelLate := state.Subscribe()
	defer cancelLate()
	_, ok = <-late
	require.False(t, ok)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	defer goleak.VerifyNone(t)

	state := sessions.NewState()
	updates, cancel := state.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range updates {
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if (i+j)%2 == 0 {
					state.SetAuthenticated(ludovic, time.Time{})
				} else {
					state.SetUnauthenticated()
				}
				_ = state.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	cancel()
	<-done
}
