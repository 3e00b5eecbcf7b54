package proposals

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-user cooldown between uses of a command.
type RateLimiter struct {
	users map[string]time.Time
	mu    sync.Mutex
	limit time.Duration
	now   func() time.Time
}

func NewRateLimiter(limit time.Duration) *RateLimiter {
	return &RateLimiter{
		users: make(map[string]time.Time),
		limit: limit,
		now:   time.Now,
	}
}

// Reserve records a use by userID now when the cooldown has passed and
// returns zero. Otherwise nothing is recorded and the remaining wait is
// returned.
func (rl *RateLimiter) Reserve(userID string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if lastUse, exists := rl.users[userID]; exists {
		if elapsed := now.Sub(lastUse); elapsed < rl.limit {
			return rl.limit - elapsed
		}
	}
	rl.users[userID] = now
	return 0
}

// Release drops the reservation for userID so a failed use does not count.
func (rl *RateLimiter) Release(userID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.users, userID)
}
