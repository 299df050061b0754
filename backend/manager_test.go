package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newStubEndpoint(t *testing.T, kind string, fn func(key string, texts []string) ([]string, error)) *Endpoint {
	t.Helper()
	cfg := registerStub(t, kind, fn)
	ep, err := NewEndpoint(cfg, "")
	if err != nil {
		t.Fatalf("NewEndpoint(%s): %v", kind, err)
	}
	t.Cleanup(func() { ep.Close() })
	return ep
}

func TestManager_FallsThroughToSecondEndpoint(t *testing.T) {
	a := newStubEndpoint(t, "mgr-a-fails", func(_ string, texts []string) ([]string, error) {
		return nil, errors.New("backend A down")
	})
	b := newStubEndpoint(t, "mgr-b-ok", func(_ string, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, txt := range texts {
			out[i] = "B:" + txt
		}
		return out, nil
	})
	m := NewManager(a, b)

	got, err := m.Translate(context.Background(), []string{"x", "y"}, "auto", "es")
	if err != nil {
		t.Fatalf("error: %v, chain must recover via B", err)
	}
	if got[0] != "B:x" || got[1] != "B:y" {
		t.Errorf("got %v", got)
	}
	if snap := a.Stats().Snapshot(); snap.Failures != 1 {
		t.Errorf("A failures = %d, want 1", snap.Failures)
	}
	if snap := b.Stats().Snapshot(); snap.Successes != 1 {
		t.Errorf("B successes = %d, want 1", snap.Successes)
	}
}

func TestManager_AllFailReturnsLastError(t *testing.T) {
	a := newStubEndpoint(t, "mgr-all-a", func(string, []string) ([]string, error) {
		return nil, errors.New("first error")
	})
	b := newStubEndpoint(t, "mgr-all-b", func(string, []string) ([]string, error) {
		return nil, errors.New("second error")
	})
	m := NewManager(a, b)

	_, err := m.Translate(context.Background(), []string{"x"}, "auto", "es")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "second error") {
		t.Errorf("error = %q, want the last endpoint's error", got)
	}
}

func TestManager_SuspendsFailingEndpoint(t *testing.T) {
	aCalls := 0
	a := newStubEndpoint(t, "mgr-susp-a", func(string, []string) ([]string, error) {
		aCalls++
		return nil, errors.New("always down")
	})
	b := newStubEndpoint(t, "mgr-susp-b", func(_ string, texts []string) ([]string, error) {
		return texts, nil
	})
	m := NewManager(a, b)

	ctx := context.Background()
	for i := 0; i < maxConsecutiveFailures+3; i++ {
		if _, err := m.Translate(ctx, []string{"x"}, "auto", "es"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if aCalls > maxConsecutiveFailures {
		t.Errorf("A called %d times, want at most %d before suspension", aCalls, maxConsecutiveFailures)
	}
}

func TestManager_SuspensionExpires(t *testing.T) {
	a := newStubEndpoint(t, "mgr-exp-a", func(string, []string) ([]string, error) {
		return nil, errors.New("down")
	})
	m := NewManager(a)
	base := time.Now()
	m.now = func() time.Time { return base }

	ctx := context.Background()
	for i := 0; i < maxConsecutiveFailures; i++ {
		m.Translate(ctx, []string{"x"}, "auto", "es")
	}
	if _, err := m.Translate(ctx, []string{"x"}, "auto", "es"); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("got %v, want ErrNoEndpoints while suspended", err)
	}

	m.now = func() time.Time { return base.Add(failureCooldown + time.Second) }
	_, err := m.Translate(ctx, []string{"x"}, "auto", "es")
	if errors.Is(err, ErrNoEndpoints) {
		t.Fatal("endpoint must be retried after the cooldown window")
	}
}

func TestManager_EmptyInput(t *testing.T) {
	m := NewManager()
	got, err := m.Translate(context.Background(), nil, "auto", "es")
	if err != nil || got != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", got, err)
	}
}

func TestManager_BestPrefersHigherSuccessRate(t *testing.T) {
	a := newStubEndpoint(t, "mgr-best-a", func(string, []string) ([]string, error) { return nil, nil })
	b := newStubEndpoint(t, "mgr-best-b", func(string, []string) ([]string, error) { return nil, nil })
	m := NewManager(a, b)

	a.Stats().recordFailure("x", time.Now())
	a.Stats().recordSuccess(time.Second)
	b.Stats().recordSuccess(time.Second)
	b.Stats().recordSuccess(time.Second)

	if best := m.Best(); best != b {
		t.Errorf("Best() = %v, want the endpoint with the better record", best.Name())
	}
	ranking := m.Ranking()
	if ranking[0].Endpoint != b {
		t.Errorf("Ranking()[0] = %s, want b first", ranking[0].Endpoint.Name())
	}
}

func TestManager_LatencyPenaltyCapped(t *testing.T) {
	s := &Stats{}
	s.recordSuccess(1000 * time.Second)
	if got := s.score(); got != 50 {
		t.Errorf("score = %v, want 50 (100 success minus capped 50 penalty)", got)
	}
}
