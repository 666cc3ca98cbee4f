package sessions

import (
	"testing"
	"time"

	"github.com/carelingo/carelingo/pkg/practice"
)

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := NewRegistry(time.Hour, 10)

	s, ok := r.Create(true)
	if !ok {
		t.Fatal("Create() failed")
	}
	if s.ID == "" {
		t.Fatal("session id empty")
	}
	if !s.State().Authenticated {
		t.Fatal("Authenticated = false, want true")
	}

	got, ok := r.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get(%q) = %v, %v", s.ID, got, ok)
	}

	if !r.Remove(s.ID) {
		t.Fatal("Remove() = false")
	}
	if _, ok := r.Get(s.ID); ok {
		t.Fatal("Get after Remove succeeded")
	}
	if r.Remove(s.ID) {
		t.Fatal("second Remove() = true")
	}
}

func TestRegistry_MaxSessions(t *testing.T) {
	r := NewRegistry(time.Hour, 2)
	var created, removed int
	r.OnCreate = func() { created++ }
	r.OnRemove = func() { removed++ }

	for i := 0; i < 2; i++ {
		if _, ok := r.Create(false); !ok {
			t.Fatalf("Create %d failed", i)
		}
	}
	if _, ok := r.Create(false); ok {
		t.Fatal("Create over capacity succeeded")
	}
	if created != 2 {
		t.Fatalf("OnCreate calls = %d, want 2", created)
	}

	r.Sweep(time.Now().Add(2 * time.Hour))
	if r.Count() != 0 {
		t.Fatalf("Count() = %d after sweep, want 0", r.Count())
	}
	if removed != 2 {
		t.Fatalf("OnRemove calls = %d, want 2", removed)
	}
}

func TestSession_Update(t *testing.T) {
	r := NewRegistry(time.Hour, 10)
	s, _ := r.Create(false)

	next := s.Update(func(st practice.SessionState) practice.SessionState {
		out, _ := st.SelectScenario("admission")
		return out
	})
	if next.Scenario == nil || next.Scenario.ID != "admission" {
		t.Fatalf("Scenario = %+v, want admission", next.Scenario)
	}
	if s.State().Scenario == nil {
		t.Fatal("Update did not persist")
	}
}

func TestSession_SubscribePublish(t *testing.T) {
	r := NewRegistry(time.Hour, 10)
	s, _ := r.Create(false)

	ch, unsub := s.Subscribe()
	s.Publish(Event{Type: "turn_state", State: "transcribing", Turn: 1})

	select {
	case ev := <-ch:
		if ev.Type != "turn_state" || ev.State != "transcribing" {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("no event received")
	}

	unsub()
	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}
	// Publish after unsubscribe must not panic.
	s.Publish(Event{Type: "turn_state"})
}

func TestSession_SlowSubscriberDropsEvents(t *testing.T) {
	r := NewRegistry(time.Hour, 10)
	s, _ := r.Create(false)

	ch, unsub := s.Subscribe()
	defer unsub()

	for i := 0; i < 40; i++ {
		s.Publish(Event{Type: "turn_state", Turn: i})
	}
	if n := len(ch); n != cap(ch) {
		t.Fatalf("buffered events = %d, want full buffer %d", n, cap(ch))
	}
}

func TestRegistry_RemoveClosesSubscribers(t *testing.T) {
	r := NewRegistry(time.Hour, 10)
	s, _ := r.Create(false)

	ch, _ := s.Subscribe()
	r.Remove(s.ID)

	if _, open := <-ch; open {
		t.Fatal("subscriber channel still open after Remove")
	}
}
