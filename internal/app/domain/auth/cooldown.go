package auth

import (
	"math"
	"time"

	"github.com/patrickmn/go-cache"
)

// ResendCooldown is how long an email must wait between verification-code
// requests.
const ResendCooldown = 30 * time.Second

// ResendLimiter blocks repeat verification-code requests per email until the
// cooldown window lapses.
type ResendLimiter struct {
	entries *cache.Cache
}

func NewResendLimiter() *ResendLimiter {
	return &ResendLimiter{
		entries: cache.New(ResendCooldown, time.Minute),
	}
}

// Allow reports whether a resend for email may proceed now. When blocked it
// also returns the whole seconds left on the cooldown. An allowed call starts
// a new cooldown window immediately.
func (l *ResendLimiter) Allow(email string) (bool, int) {
	if _, expiry, found := l.entries.GetWithExpiration(email); found {
		remaining := int(math.Ceil(time.Until(expiry).Seconds()))
		if remaining < 1 {
			remaining = 1
		}
		return false, remaining
	}
	l.entries.Set(email, struct{}{}, cache.DefaultExpiration)
	return true, 0
}
