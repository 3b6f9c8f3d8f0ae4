package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/mind-engage/lti-login/internal/notify"
)

type countingNotifier struct {
	sent []string
}

func (c *countingNotifier) Send(_ context.Context, subject, _ string) error {
	c.sent = append(c.sent, subject)
	return nil
}

func TestDeduperSquelchesRepeats(t *testing.T) {
	next := &countingNotifier{}
	d := notify.NewDeduper(next, time.Hour)
	defer d.Stop()
	ctx := context.Background()

	if err := d.Send(ctx, "Automatic Canvas Registration", "iss=https://canvas.instructure.com\nmore"); err != nil {
		t.Fatal(err)
	}
	if err := d.Send(ctx, "Automatic Canvas Registration", "iss=https://canvas.instructure.com\nother tail"); err != nil {
		t.Fatal(err)
	}
	if len(next.sent) != 1 {
		t.Fatalf("sent %d notices, want 1", len(next.sent))
	}
}

func TestDeduperPassesDistinctNotices(t *testing.T) {
	next := &countingNotifier{}
	d := notify.NewDeduper(next, time.Hour)
	defer d.Stop()
	ctx := context.Background()

	_ = d.Send(ctx, "Automatic Canvas Registration", "iss=a")
	_ = d.Send(ctx, "Automatic Canvas Registration", "iss=b")
	_ = d.Send(ctx, "AuthToken Request Failure (Production)", "iss=a")
	if len(next.sent) != 3 {
		t.Fatalf("sent %d notices, want 3", len(next.sent))
	}
}

func TestDeduperStopKeepsSquelching(t *testing.T) {
	next := &countingNotifier{}
	d := notify.NewDeduper(next, time.Hour)
	d.Stop()
	ctx := context.Background()

	_ = d.Send(ctx, "AuthToken Request Failure (Production)", "iss=a")
	_ = d.Send(ctx, "AuthToken Request Failure (Production)", "iss=a")
	if len(next.sent) != 1 {
		t.Fatalf("sent %d notices after Stop, want 1", len(next.sent))
	}
}
