// Package ratelimit throttles sign-in traffic: windowed counters for the
// one-time-code flow and per-client token buckets for password forms.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Clock lets tests control time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// OTPConfig holds the one-time-code limits.
type OTPConfig struct {
	SendCooldown     time.Duration // between sends to one identifier
	SendMaxPerHour   int           // sends per identifier per hour
	SendMaxIPPerHour int           // sends per IP per hour

	VerifyMaxAttempts  int           // verify attempts before lockout
	VerifyLockout      time.Duration // lockout after max attempts
	VerifyMaxIPPerHour int           // verify attempts per IP per hour

	Clock Clock
}

func DefaultOTPConfig() *OTPConfig {
	return &OTPConfig{
		SendCooldown:       60 * time.Second,
		SendMaxPerHour:     5,
		SendMaxIPPerHour:   20,
		VerifyMaxAttempts:  5,
		VerifyLockout:      5 * time.Minute,
		VerifyMaxIPPerHour: 30,
	}
}

// Result is the outcome of a limit check.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

func allow() Result { return Result{Allowed: true} }

func deny(reason string, retryAfter time.Duration) Result {
	return Result{Reason: reason, RetryAfter: retryAfter}
}

// window counts events in an hour-long window that opens on the first event.
type window struct {
	count    int
	firstAt  time.Time
	lastAt   time.Time
	lockedAt time.Time
}

func (w *window) open(now time.Time) bool {
	return w != nil && now.Sub(w.firstAt) < time.Hour
}

func (w *window) full(now time.Time, max int) (time.Duration, bool) {
	if w.open(now) && w.count >= max {
		return time.Hour - now.Sub(w.firstAt), true
	}
	return 0, false
}

// bump records an event, starting a fresh window when the old one closed.
func bump(m map[string]*window, key string, now time.Time) *window {
	w := m[key]
	if !w.open(now) {
		w = &window{firstAt: now}
		m[key] = w
	}
	w.count++
	w.lastAt = now
	return w
}

// OTPLimiter layers per-identifier and per-IP limits over code sends and
// verifications. Check never consumes quota; Record does.
type OTPLimiter struct {
	cfg   *OTPConfig
	clock Clock

	mu         sync.RWMutex
	sendByID   map[string]*window
	sendByIP   map[string]*window
	verifyByID map[string]*window
	verifyByIP map[string]*window

	stop      context.CancelFunc
	stopped   context.Context
	sweepOnce sync.Once
	sweepWg   sync.WaitGroup
}

func NewOTP(cfg *OTPConfig) *OTPLimiter {
	if cfg == nil {
		cfg = DefaultOTPConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &OTPLimiter{
		cfg:        cfg,
		clock:      clock,
		sendByID:   make(map[string]*window),
		sendByIP:   make(map[string]*window),
		verifyByID: make(map[string]*window),
		verifyByIP: make(map[string]*window),
		stop:       cancel,
		stopped:    ctx,
	}
}

// Close stops the background sweeper.
func (l *OTPLimiter) Close() {
	l.stop()
	l.sweepWg.Wait()
}

func (l *OTPLimiter) CheckSend(identifier, ip string) Result {
	l.startSweeper()
	now := l.clock.Now()
	idKey := hashKey("send:id:", normalizeIdentifier(identifier))
	ipKey := hashKey("send:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if w := l.sendByID[idKey]; w != nil {
		if elapsed := now.Sub(w.lastAt); elapsed < l.cfg.SendCooldown {
			return deny("cooldown", l.cfg.SendCooldown-elapsed)
		}
		if wait, full := w.full(now, l.cfg.SendMaxPerHour); full {
			return deny("hourly_limit", wait)
		}
	}
	if wait, full := l.sendByIP[ipKey].full(now, l.cfg.SendMaxIPPerHour); full {
		return deny("ip_hourly_limit", wait)
	}
	return allow()
}

// RecordSend records a code that was actually sent.
func (l *OTPLimiter) RecordSend(identifier, ip string) {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	bump(l.sendByID, hashKey("send:id:", normalizeIdentifier(identifier)), now)
	bump(l.sendByIP, hashKey("send:ip:", ip), now)
}

func (l *OTPLimiter) CheckVerify(identifier, ip string) Result {
	l.startSweeper()
	now := l.clock.Now()
	idKey := hashKey("verify:id:", normalizeIdentifier(identifier))
	ipKey := hashKey("verify:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if w := l.verifyByID[idKey]; w != nil {
		switch {
		case !w.lockedAt.IsZero():
			if elapsed := now.Sub(w.lockedAt); elapsed < l.cfg.VerifyLockout {
				return deny("lockout", l.cfg.VerifyLockout-elapsed)
			}
		case w.count >= l.cfg.VerifyMaxAttempts:
			return deny("max_attempts", l.cfg.VerifyLockout)
		}
	}
	if wait, full := l.verifyByIP[ipKey].full(now, l.cfg.VerifyMaxIPPerHour); full {
		return deny("ip_hourly_limit", wait)
	}
	return allow()
}

// RecordVerify records a verification attempt and reports whether it
// triggered a lockout.
func (l *OTPLimiter) RecordVerify(identifier, ip string) (lockedOut bool) {
	now := l.clock.Now()
	idKey := hashKey("verify:id:", normalizeIdentifier(identifier))

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.verifyByID[idKey]
	if w == nil || (!w.lockedAt.IsZero() && now.Sub(w.lockedAt) >= l.cfg.VerifyLockout) {
		w = &window{firstAt: now}
		l.verifyByID[idKey] = w
	}
	w.count++
	w.lastAt = now
	if w.count >= l.cfg.VerifyMaxAttempts && w.lockedAt.IsZero() {
		w.lockedAt = now
		lockedOut = true
	}

	bump(l.verifyByIP, hashKey("verify:ip:", ip), now)
	return lockedOut
}

// ResetVerify clears the attempt counter after a successful verification.
func (l *OTPLimiter) ResetVerify(identifier string) {
	idKey := hashKey("verify:id:", normalizeIdentifier(identifier))
	l.mu.Lock()
	delete(l.verifyByID, idKey)
	l.mu.Unlock()
}

func (l *OTPLimiter) startSweeper() {
	l.sweepOnce.Do(func() {
		l.sweepWg.Add(1)
		go func() {
			defer l.sweepWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.stopped.Done():
					return
				case <-ticker.C:
					l.sweep()
				}
			}
		}()
	})
}

func (l *OTPLimiter) sweep() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	evict := func(m map[string]*window, maxAge time.Duration) {
		for k, w := range m {
			if now.Sub(w.lastAt) > maxAge {
				delete(m, k)
			}
		}
	}
	evict(l.sendByID, time.Hour)
	evict(l.sendByIP, time.Hour)
	evict(l.verifyByID, l.cfg.VerifyLockout+time.Hour)
	evict(l.verifyByIP, time.Hour)
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
