package ratelimit

import (
	"context"
	"time"
)

// Gate names which cooldown gate rejected a request.
type Gate string

const (
	GateIP    Gate = "ip"
	GatePhone Gate = "phone"
)

// Rejection describes a closed gate.
type Rejection struct {
	Gate       Gate
	Window     time.Duration
	RetryAfter time.Duration
}

// Limiter runs the two cooldown gates in order: IP first, then phone.
//
// Gate ordering invariant: a request failing the IP gate must never touch
// the phone gate, so a blocked client cannot burn a phone-number slot.
type Limiter struct {
	store Store

	ipCooldown    time.Duration
	phoneCooldown time.Duration
}

func NewLimiter(store Store, ipCooldown, phoneCooldown time.Duration) *Limiter {
	return &Limiter{store: store, ipCooldown: ipCooldown, phoneCooldown: phoneCooldown}
}

// Check consumes a slot on both gates for the given keys.
// A nil Rejection means the request may proceed. The consumed slots are not
// released if the downstream dispatch fails.
func (l *Limiter) Check(ctx context.Context, ip, phone string) (*Rejection, error) {
	ok, retry, err := l.store.Allow(ctx, "ratelimit:ip:"+ip, l.ipCooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Rejection{Gate: GateIP, Window: l.ipCooldown, RetryAfter: retry}, nil
	}

	ok, retry, err = l.store.Allow(ctx, "ratelimit:phone:"+phone, l.phoneCooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Rejection{Gate: GatePhone, Window: l.phoneCooldown, RetryAfter: retry}, nil
	}
	return nil, nil
}
