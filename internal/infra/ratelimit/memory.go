package ratelimit

import (
	"context"
	"sync"
	"time"
)

type visitor struct {
	count     int
	lastReset time.Time
}

// MemoryLimiter: janela fixa contada a partir do primeiro hit. Check e
// incremento acontecem sob o mesmo lock — sem corrida de sobre-admissão.
// Vale só pra instância única; com réplicas, use o RedisLimiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	salt     string

	now func() time.Time
}

func NewMemoryLimiter(salt string) *MemoryLimiter {
	l := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		salt:     salt,
		now:      time.Now,
	}

	go l.cleanup()
	return l
}

func (l *MemoryLimiter) AllowIP(_ context.Context, ip string) bool {
	return l.allow("ip:"+ip, IPLimit, IPWindow)
}

func (l *MemoryLimiter) AllowEmail(_ context.Context, email string) bool {
	return l.allow("email:"+HashEmail(l.salt, email), EmailLimit, EmailWindow)
}

func (l *MemoryLimiter) allow(key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, exists := l.visitors[key]

	if !exists {
		l.visitors[key] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= limit
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		for key, v := range l.visitors {
			if now.Sub(v.lastReset) > 2*EmailWindow {
				delete(l.visitors, key)
			}
		}
		l.mu.Unlock()
	}
}
