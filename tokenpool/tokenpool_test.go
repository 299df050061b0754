package tokenpool

import (
	"testing"
	"time"
)

func fixedClock(p *Pool, at time.Time) func(time.Duration) {
	now := at
	p.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestNextRotatesRoundRobin(t *testing.T) {
	p := New([]string{"a", "b", "c"})

	var got []string
	for i := 0; i < 6; i++ {
		tok, ok := p.Next()
		if !ok {
			t.Fatalf("Next %d: pool empty", i)
		}
		got = append(got, tok)
	}
	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
}

func TestNextEmptyPool(t *testing.T) {
	p := New(nil)
	if _, ok := p.Next(); ok {
		t.Error("got ok for empty pool")
	}
}

func TestNextSkipsTokenInCooldown(t *testing.T) {
	p := New([]string{"a", "b"})
	advance := fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", 30*time.Second)
	for i := 0; i < 4; i++ {
		tok, ok := p.Next()
		if !ok || tok != "b" {
			t.Fatalf("Next %d = %q, want b", i, tok)
		}
	}

	advance(31 * time.Second)
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		tok, _ := p.Next()
		seen[tok] = true
	}
	if !seen["a"] {
		t.Error("token a never returned after cooldown expired")
	}
}

func TestNextReturnsSoonestExpiryWhenAllCooling(t *testing.T) {
	p := New([]string{"a", "b", "c"})
	fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", 300*time.Second)
	p.RecordError("b", 30*time.Second)
	p.RecordError("c", 600*time.Second)

	tok, ok := p.Next()
	if !ok {
		t.Fatal("pool reported empty")
	}
	if tok != "b" {
		t.Errorf("got %q, want b (soonest expiry)", tok)
	}
}

func TestRepeatErrorsGrowSkipRounds(t *testing.T) {
	p := New([]string{"a", "b"})
	advance := fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", time.Second)
	p.RecordError("a", time.Second)
	advance(2 * time.Second)

	// Error count 2 on the first failure + 2 more on the second leaves a
	// skip debt that outlives the cooldown.
	stats := p.Stats()
	if stats[0].Errors != 2 {
		t.Errorf("errors = %d, want 2", stats[0].Errors)
	}
	if stats[0].SkipRounds != 3 {
		t.Errorf("skip rounds = %d, want 3", stats[0].SkipRounds)
	}

	for i := 0; i < 3; i++ {
		tok, _ := p.Next()
		if tok != "b" {
			t.Fatalf("Next %d = %q, want b while a skips", i, tok)
		}
	}
	tok, _ := p.Next()
	if tok != "a" {
		t.Errorf("got %q, want a after skip debt drained", tok)
	}
}

func TestRecordSuccessDecaysPenalties(t *testing.T) {
	p := New([]string{"a"})
	advance := fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", time.Second)
	advance(2 * time.Second)
	p.RecordSuccess("a")
	p.RecordSuccess("a")

	stats := p.Stats()
	if stats[0].Errors != 0 {
		t.Errorf("errors = %d, want 0", stats[0].Errors)
	}
	if stats[0].SkipRounds != 0 {
		t.Errorf("skip rounds = %d, want 0", stats[0].SkipRounds)
	}
}

func TestRecordErrorDefaultCooldown(t *testing.T) {
	p := New([]string{"a"})
	fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", 0)

	stats := p.Stats()
	if stats[0].CooldownRemaining != DefaultCooldown {
		t.Errorf("cooldown = %v, want %v", stats[0].CooldownRemaining, DefaultCooldown)
	}
}

func TestResetAll(t *testing.T) {
	p := New([]string{"a", "b"})
	fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", time.Hour)
	p.RecordError("a", time.Hour)
	p.ResetAll()

	tok, _ := p.Next()
	if tok != "a" {
		t.Errorf("got %q, want a after reset", tok)
	}
	stats := p.Stats()
	if stats[0].Errors != 0 || stats[0].SkipRounds != 0 || stats[0].CooldownRemaining != 0 {
		t.Errorf("stats after reset = %+v", stats[0])
	}
}

func TestResetCooldownsKeepsErrorCounts(t *testing.T) {
	p := New([]string{"a"})
	fixedClock(p, time.Unix(1000, 0))

	p.RecordError("a", time.Hour)
	p.ResetCooldowns()

	stats := p.Stats()
	if stats[0].CooldownRemaining != 0 {
		t.Errorf("cooldown = %v, want 0", stats[0].CooldownRemaining)
	}
	if stats[0].Errors != 1 {
		t.Errorf("errors = %d, want 1", stats[0].Errors)
	}
}

func TestStatsCountsUsage(t *testing.T) {
	p := New([]string{"a", "b"})

	p.Next()
	p.Next()
	p.Next()

	stats := p.Stats()
	if stats[0].Uses != 2 || stats[1].Uses != 1 {
		t.Errorf("uses = %d/%d, want 2/1", stats[0].Uses, stats[1].Uses)
	}
}
