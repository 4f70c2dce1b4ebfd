package memory

import (
	"context"
	"sync"
	"time"

	domainUser "event-ticketing/internal/domain/user"

	"github.com/google/uuid"
)

// CodeOutbox records delivered reset codes.
type CodeOutbox struct {
	mu    sync.Mutex
	codes map[uuid.UUID]string
	Err   error
}

func NewCodeOutbox() *CodeOutbox {
	return &CodeOutbox{codes: make(map[uuid.UUID]string)}
}

func (o *CodeOutbox) SendResetCode(_ context.Context, u *domainUser.User, code string, _ time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.codes[u.ID] = code
	return nil
}

func (o *CodeOutbox) Last(userID uuid.UUID) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	code, ok := o.codes[userID]
	return code, ok
}

// Limiter allows up to Max calls per key.
type Limiter struct {
	mu    sync.Mutex
	Max   int
	calls map[string]int
}

func NewLimiter(max int) *Limiter {
	return &Limiter{Max: max, calls: make(map[string]int)}
}

func (l *Limiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[key]++
	return l.calls[key] <= l.Max, nil
}
