package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/remote-screen-share/backend/internal/model"
)

type fakePeer struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (p *fakePeer) Send(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, data)
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func newSession(role model.Role, username string) *model.Session {
	return &model.Session{
		ID:       uuid.New().String(),
		Role:     role,
		Username: username,
		Conn:     &fakePeer{},
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := New()

	sess := newSession(model.RoleViewer, "alice")
	if err := h.Register(sess); err != nil {
		t.Fatalf("Failed to register session: %v", err)
	}

	t.Run("find returns registered session", func(t *testing.T) {
		found, ok := h.Find(sess.ID)
		if !ok {
			t.Fatal("Session should be findable after register")
		}
		if found.ID != sess.ID {
			t.Errorf("Expected id %s, got %s", sess.ID, found.ID)
		}
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		dup := newSession(model.RoleViewer, "alice")
		dup.ID = sess.ID
		if err := h.Register(dup); err != model.ErrDuplicateID {
			t.Errorf("Expected ErrDuplicateID, got %v", err)
		}
	})

	t.Run("unregister removes and returns session", func(t *testing.T) {
		removed, err := h.Unregister(sess.ID)
		if err != nil {
			t.Fatalf("Failed to unregister: %v", err)
		}
		if removed.ID != sess.ID {
			t.Errorf("Expected id %s, got %s", sess.ID, removed.ID)
		}
		if _, ok := h.Find(sess.ID); ok {
			t.Error("Session should not be findable after unregister")
		}
	})

	t.Run("unregister unknown id", func(t *testing.T) {
		if _, err := h.Unregister("no-such-id"); err != model.ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestHub_ListByUser(t *testing.T) {
	h := New()

	for i := 0; i < 3; i++ {
		if err := h.Register(newSession(model.RoleViewer, "alice")); err != nil {
			t.Fatalf("Failed to register: %v", err)
		}
	}
	if err := h.Register(newSession(model.RoleViewer, "bob")); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	if got := len(h.ListByUser("alice")); got != 3 {
		t.Errorf("Expected 3 sessions for alice, got %d", got)
	}
	if got := len(h.ListByUser("bob")); got != 1 {
		t.Errorf("Expected 1 session for bob, got %d", got)
	}
	if got := len(h.ListByUser("carol")); got != 0 {
		t.Errorf("Expected 0 sessions for carol, got %d", got)
	}
	if got := h.Len(); got != 4 {
		t.Errorf("Expected 4 sessions total, got %d", got)
	}
}

func TestHub_Promote(t *testing.T) {
	t.Run("viewer becomes capture agent", func(t *testing.T) {
		h := New()
		sess := newSession(model.RoleViewer, "alice")
		h.Register(sess)

		if !h.Promote(sess.ID) {
			t.Fatal("Promotion from viewer should succeed")
		}
		if sess.Role != model.RoleCaptureAgent {
			t.Errorf("Expected role captureAgent, got %s", sess.Role)
		}
		if h.AgentCount() != 1 {
			t.Errorf("Expected 1 agent in pool, got %d", h.AgentCount())
		}
	})

	t.Run("promotion is idempotent", func(t *testing.T) {
		h := New()
		sess := newSession(model.RoleViewer, "alice")
		h.Register(sess)

		h.Promote(sess.ID)
		if !h.Promote(sess.ID) {
			t.Error("Repeated promotion should be a no-op success")
		}
		if h.AgentCount() != 1 {
			t.Errorf("Expected pool size 1, got %d", h.AgentCount())
		}
	})

	t.Run("promotion clears subscription", func(t *testing.T) {
		h := New()
		sess := newSession(model.RoleViewer, "alice")
		h.Register(sess)
		h.Subscribe(sess.ID, 2)

		h.Promote(sess.ID)
		if sess.SelectedDisplay != nil {
			t.Error("Promotion should clear the display subscription")
		}
	})

	t.Run("admin cannot be promoted", func(t *testing.T) {
		h := New()
		sess := newSession(model.RoleAdmin, "root")
		h.Register(sess)

		if h.Promote(sess.ID) {
			t.Error("Promotion from admin should be rejected")
		}
		if sess.Role != model.RoleAdmin {
			t.Errorf("Role should stay admin, got %s", sess.Role)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		h := New()
		if h.Promote("no-such-id") {
			t.Error("Promoting an unknown session should fail")
		}
	})
}

func TestHub_Subscriptions(t *testing.T) {
	h := New()

	viewer := newSession(model.RoleViewer, "alice")
	direct := newSession(model.RoleDirect, "bob")
	other := newSession(model.RoleViewer, "carol")
	agent := newSession(model.RoleCaptureAgent, "agent")
	h.Register(viewer)
	h.Register(direct)
	h.Register(other)
	h.Register(agent)

	h.Subscribe(viewer.ID, 1)
	h.Subscribe(direct.ID, 1)
	h.Subscribe(other.ID, 2)

	t.Run("subscribers filters by display and role", func(t *testing.T) {
		subs := h.Subscribers(1)
		if len(subs) != 2 {
			t.Fatalf("Expected 2 subscribers for display 1, got %d", len(subs))
		}
		for _, s := range subs {
			if !s.Watching(1) {
				t.Errorf("Subscriber %s is not watching display 1", s.ID)
			}
		}
	})

	t.Run("resubscribe replaces prior display", func(t *testing.T) {
		h.Subscribe(viewer.ID, 3)
		if len(h.Subscribers(1)) != 1 {
			t.Error("Old subscription should be replaced")
		}
		if len(h.Subscribers(3)) != 1 {
			t.Error("New subscription should be recorded")
		}
	})

	t.Run("unsubscribe clears", func(t *testing.T) {
		h.Unsubscribe(viewer.ID)
		if viewer.SelectedDisplay != nil {
			t.Error("Unsubscribe should clear the subscription")
		}
		// Clearing again is harmless
		h.Unsubscribe(viewer.ID)
	})

	t.Run("non-agents excludes pool members", func(t *testing.T) {
		targets := h.NonAgents()
		for _, s := range targets {
			if s.ID == agent.ID {
				t.Error("Broadcast targets must not include capture agents")
			}
		}
		if len(targets) != 3 {
			t.Errorf("Expected 3 broadcast targets, got %d", len(targets))
		}
	})
}

func TestHub_AdminChannel(t *testing.T) {
	h := New()

	first := newSession(model.RoleAdmin, "root")
	h.Register(first)

	admin, ok := h.Admin()
	if !ok || admin.ID != first.ID {
		t.Fatal("First admin should hold the channel")
	}

	// A second admin silently steals the channel.
	second := newSession(model.RoleAdmin, "root")
	h.Register(second)

	admin, ok = h.Admin()
	if !ok || admin.ID != second.ID {
		t.Error("Most recent admin should hold the channel")
	}

	// Terminating the current admin clears the pointer.
	h.Unregister(second.ID)
	if _, ok := h.Admin(); ok {
		t.Error("Admin pointer should be cleared when the admin disconnects")
	}
}

func TestHub_AgentPool(t *testing.T) {
	t.Run("pick from empty pool", func(t *testing.T) {
		h := New()
		if _, ok := h.PickAgent(); ok {
			t.Error("Empty pool should not yield an agent")
		}
	})

	t.Run("pick returns a live member", func(t *testing.T) {
		h := New()
		agent := newSession(model.RoleCaptureAgent, "agent")
		h.Register(agent)

		picked, ok := h.PickAgent()
		if !ok || picked.ID != agent.ID {
			t.Error("Pool member should be picked")
		}
	})

	t.Run("disconnect removes from pool synchronously", func(t *testing.T) {
		h := New()
		agent := newSession(model.RoleCaptureAgent, "agent")
		h.Register(agent)
		h.Unregister(agent.ID)

		if h.AgentCount() != 0 {
			t.Error("Unregister must remove the agent from the pool")
		}
	})
}

func TestHub_AwaitAgent(t *testing.T) {
	t.Run("returns immediately when pool is non-empty", func(t *testing.T) {
		h := New()
		h.Register(newSession(model.RoleCaptureAgent, "agent"))

		start := time.Now()
		if _, err := h.AwaitAgent(time.Second); err != nil {
			t.Fatalf("AwaitAgent failed: %v", err)
		}
		if time.Since(start) > 100*time.Millisecond {
			t.Error("AwaitAgent should not block when an agent is present")
		}
	})

	t.Run("times out with ErrCaptureAgentUnavailable", func(t *testing.T) {
		h := New()

		start := time.Now()
		_, err := h.AwaitAgent(50 * time.Millisecond)
		if err != model.ErrCaptureAgentUnavailable {
			t.Fatalf("Expected ErrCaptureAgentUnavailable, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("AwaitAgent must respect its deadline")
		}
	})

	t.Run("wakes when an agent connects", func(t *testing.T) {
		h := New()

		done := make(chan error, 1)
		go func() {
			_, err := h.AwaitAgent(2 * time.Second)
			done <- err
		}()

		// Give the waiter time to park before the agent shows up.
		time.Sleep(20 * time.Millisecond)
		h.Register(newSession(model.RoleCaptureAgent, "agent"))

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("AwaitAgent should succeed once an agent connects: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("AwaitAgent did not wake up")
		}
	})

	t.Run("wakes on promotion", func(t *testing.T) {
		h := New()
		viewer := newSession(model.RoleViewer, "alice")
		h.Register(viewer)

		done := make(chan error, 1)
		go func() {
			_, err := h.AwaitAgent(2 * time.Second)
			done <- err
		}()

		time.Sleep(20 * time.Millisecond)
		h.Promote(viewer.ID)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("AwaitAgent should succeed after promotion: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("AwaitAgent did not wake up on promotion")
		}
	})
}

func TestHub_OnChange(t *testing.T) {
	h := New()

	var mu sync.Mutex
	calls := 0
	h.SetOnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	sess := newSession(model.RoleViewer, "alice")
	h.Register(sess)
	h.Promote(sess.ID)
	h.Unregister(sess.ID)

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Errorf("Expected 3 change notifications (register, promote, unregister), got %d", calls)
	}
}
