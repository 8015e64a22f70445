package rate

import (
	"testing"
	"time"
)

func TestLimiterRefills(t *testing.T) {
	interval := 10 * time.Millisecond
	l := NewLimiter(1, 100, Every(interval))

	client := "203.0.113.7"

	if !l.Check(client) {
		t.Fatal("first request must pass")
	}
	if l.Check(client) {
		t.Fatal("second immediate request must be limited")
	}

	time.Sleep(interval + interval/2)
	if !l.Check(client) {
		t.Fatal("request after a full interval must pass")
	}
}

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(5, 100, Every(time.Second))

	client := "203.0.113.7"
	for i := 0; i < 5; i++ {
		if !l.Check(client) {
			t.Fatalf("request %d within the burst must pass", i)
		}
	}
	if l.Check(client) {
		t.Fatal("request beyond the burst must be limited")
	}
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := NewLimiter(1, 100, Every(time.Second))

	if !l.Check("203.0.113.7") {
		t.Fatal("first client's request must pass")
	}
	if l.Check("203.0.113.7") {
		t.Fatal("first client must be limited")
	}
	if !l.Check("203.0.113.8") {
		t.Fatal("a different client must not share the first one's bucket")
	}
}
