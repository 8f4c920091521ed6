package ws

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

type fakeSession struct {
	mu     sync.Mutex
	events []string
	fail   bool
	closed bool
}

func (f *fakeSession) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestHub() *ConnectionHub {
	return NewConnHub(logger.InitLogger("hub-test", logger.LevelError))
}

func TestSendTo_MultiDeviceFanout(t *testing.T) {
	hub := newTestHub()
	id := uuid.Must()

	phone := &fakeSession{}
	tablet := &fakeSession{}

	if err := hub.Join(id, phone); err != nil {
		t.Fatalf("join phone: %v", err)
	}
	if err := hub.Join(id, tablet); err != nil {
		t.Fatalf("join tablet: %v", err)
	}

	delivered := hub.SendTo(context.Background(), id, "rideAccepted", nil)
	if delivered != 2 {
		t.Fatalf("expected delivery to 2 sessions, got %d", delivered)
	}
	if len(phone.events) != 1 || len(tablet.events) != 1 {
		t.Fatalf("both devices must receive the event, got %d and %d", len(phone.events), len(tablet.events))
	}
}

func TestSendTo_UnknownIdentityIsNoop(t *testing.T) {
	hub := newTestHub()

	if delivered := hub.SendTo(context.Background(), uuid.Must(), "rideRequested", nil); delivered != 0 {
		t.Fatalf("expected no deliveries, got %d", delivered)
	}
}

func TestSendTo_FailedSessionDoesNotBlockOthers(t *testing.T) {
	hub := newTestHub()
	id := uuid.Must()

	broken := &fakeSession{fail: true}
	ok := &fakeSession{}
	_ = hub.Join(id, broken)
	_ = hub.Join(id, ok)

	if delivered := hub.SendTo(context.Background(), id, "rideRequest", nil); delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
}

func TestLeave_PrunesEmptyIdentity(t *testing.T) {
	hub := newTestHub()
	id := uuid.Must()
	s := &fakeSession{}

	_ = hub.Join(id, s)
	hub.Leave(id, s)

	if hub.Connections(id) != 0 {
		t.Fatalf("expected 0 connections after leave")
	}
	if hub.Identities() != 0 {
		t.Fatalf("identity entry must be pruned when its set is empty")
	}

	// повторный Leave не должен паниковать
	hub.Leave(id, s)
}

func TestJoin_NilSession(t *testing.T) {
	hub := newTestHub()
	if err := hub.Join(uuid.Must(), nil); !errors.Is(err, ErrEmptySession) {
		t.Fatalf("expected ErrEmptySession, got %v", err)
	}
}

func TestHub_ConcurrentJoinLeaveSend(t *testing.T) {
	hub := newTestHub()
	id := uuid.Must()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &fakeSession{}
			_ = hub.Join(id, s)
			hub.SendTo(context.Background(), id, "rideRequest", nil)
			hub.Leave(id, s)
		}()
	}
	wg.Wait()

	if hub.Connections(id) != 0 {
		t.Fatalf("expected empty hub after concurrent churn, got %d", hub.Connections(id))
	}
}

func TestClose_ClosesAllSessions(t *testing.T) {
	hub := newTestHub()
	a, b := &fakeSession{}, &fakeSession{}
	_ = hub.Join(uuid.Must(), a)
	_ = hub.Join(uuid.Must(), b)

	hub.Close()

	if !a.closed || !b.closed {
		t.Fatalf("all sessions must be closed")
	}
	if hub.Identities() != 0 {
		t.Fatalf("hub must be empty after Close")
	}
}
