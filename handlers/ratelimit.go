package handlers

import (
	"sync"
	"time"
)

// RateLimiter はユーザーごとのクールダウンを管理します。
type RateLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastSeen map[string]time.Time
}

func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		cooldown: cooldown,
		lastSeen: make(map[string]time.Time),
	}
}

// Allow はユーザーのクールダウンが明けていればtrueを返し、時刻を記録します。
func (r *RateLimiter) Allow(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if last, ok := r.lastSeen[userID]; ok && now.Sub(last) < r.cooldown {
		return false
	}
	r.lastSeen[userID] = now
	return true
}
