package screen

import (
	"sync"
	"time"
)

// DefaultBannerTTL matches the UI's fixed auto-dismiss timer.
const DefaultBannerTTL = 5 * time.Second

// Banner holds at most one success and one error message, last write wins.
// Any set restarts the dismiss timer, which clears both slots when it fires.
type Banner struct {
	mu      sync.Mutex
	ttl     time.Duration
	success string
	failure string
	timer   *time.Timer
}

// NewBanner builds a banner with the given auto-dismiss TTL; zero means
// DefaultBannerTTL.
func NewBanner(ttl time.Duration) *Banner {
	if ttl <= 0 {
		ttl = DefaultBannerTTL
	}
	return &Banner{ttl: ttl}
}

func (b *Banner) SetSuccess(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.success = msg
	b.resetTimerLocked()
}

func (b *Banner) SetError(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failure = msg
	b.resetTimerLocked()
}

func (b *Banner) Success() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.success
}

func (b *Banner) Error() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failure
}

// Clear dismisses both messages immediately.
func (b *Banner) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearLocked()
}

func (b *Banner) resetTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.clearLocked()
	})
}

func (b *Banner) clearLocked() {
	b.success = ""
	b.failure = ""
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
