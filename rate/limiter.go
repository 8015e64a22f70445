// Package rate keeps one token bucket per client and forgets clients
// that go quiet, bounding both request rates and memory.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	Expiry   int // minutes of inactivity before a client is dropped
	Burst    int
	LimitRPS float64

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func NewLimiter(burst int, expiry int, limitRPS float64) *Limiter {
	l := &Limiter{
		Expiry:   expiry,
		Burst:    burst,
		LimitRPS: limitRPS,
		clients:  make(map[string]*client),
	}
	go l.sweep()
	return l
}

// Check reports whether the client identified by id may proceed,
// consuming one token when it may.
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[id]
	if !ok {
		c = &client{bucket: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst)}
		l.clients[id] = c
	}
	c.lastSeen = time.Now()
	return c.bucket.Allow()
}

func (l *Limiter) sweep() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		for id, c := range l.clients {
			if time.Since(c.lastSeen) > time.Duration(l.Expiry)*time.Minute {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts "one event per interval" into the requests-per-second
// form NewLimiter takes.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
