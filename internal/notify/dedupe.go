package notify

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Deduper squelches repeats of the same notice within the TTL window.
// Concurrent first-contact auto-registrations for one deployment key
// would otherwise mail the admin once per racing request.
type Deduper struct {
	next Notifier
	seen *ttlcache.Cache[string, struct{}]
}

func NewDeduper(next Notifier, window time.Duration) *Deduper {
	c := ttlcache.New(
		ttlcache.WithTTL[string, struct{}](window),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go c.Start()
	return &Deduper{next: next, seen: c}
}

// Stop halts the cache janitor goroutine. Send keeps working after
// Stop; expired entries just stop being evicted in the background.
func (d *Deduper) Stop() {
	d.seen.Stop()
}

func (d *Deduper) Send(ctx context.Context, subject, body string) error {
	key := subject + "\x00" + firstLine(body)
	if d.seen.Has(key) {
		return nil
	}
	d.seen.Set(key, struct{}{}, ttlcache.DefaultTTL)
	return d.next.Send(ctx, subject, body)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
