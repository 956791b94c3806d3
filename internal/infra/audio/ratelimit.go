package audio

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps uploads per client within a fixed window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	remaining int
	startedAt time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow spends one upload from the client's window.
func (rl *RateLimiter) Allow(client string) bool {
	ok, _ := rl.take(client)
	return ok
}

func (rl *RateLimiter) take(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evict(now)

	w, ok := rl.clients[client]
	if !ok || now.Sub(w.startedAt) > rl.period {
		w = &window{remaining: rl.limit, startedAt: now}
		rl.clients[client] = w
	}

	if w.remaining <= 0 {
		return false, rl.period - now.Sub(w.startedAt)
	}
	w.remaining--
	return true, 0
}

// evict drops windows that ended a full period ago. Called with mu held.
func (rl *RateLimiter) evict(now time.Time) {
	for client, w := range rl.clients {
		if now.Sub(w.startedAt) > 2*rl.period {
			delete(rl.clients, client)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(clientAddr(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)+1))
			http.Error(w, "too many uploads", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientAddr identifies the uploader. Kiosks behind a proxy are told apart by
// the first X-Forwarded-For hop.
func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
