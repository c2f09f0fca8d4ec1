package tokencache

import (
	"testing"
	"time"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	c := New(ttl)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestPutGet(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Put("tok", "report.pdf", 7, []byte("pdf-bytes"))

	entry, ok := c.Get("tok", 7)
	if !ok {
		t.Fatal("expected entry")
	}
	if string(entry.Value) != "pdf-bytes" || entry.FileName != "report.pdf" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	if _, ok := c.Get("missing", 7); ok {
		t.Error("expected miss for unknown token")
	}
}

func TestOwnerCheck(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Put("tok", "report.pdf", 7, nil)

	if _, ok := c.Get("tok", 8); ok {
		t.Error("expected miss for wrong owner")
	}
	// A wrong-owner read must not evict the entry.
	if _, ok := c.Get("tok", 7); !ok {
		t.Error("entry should survive a wrong-owner read")
	}
}

func TestExpiry(t *testing.T) {
	c, now := newTestCache(time.Hour)
	c.Put("tok", "report.pdf", 7, nil)

	*now = now.Add(time.Hour + time.Second)

	if _, ok := c.Get("tok", 7); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on access, len=%d", c.Len())
	}
}

func TestSweep(t *testing.T) {
	c, now := newTestCache(time.Hour)
	c.Put("old1", "a.pdf", 1, nil)
	c.Put("old2", "b.pdf", 1, nil)

	*now = now.Add(30 * time.Minute)
	c.Put("fresh", "c.pdf", 1, nil)

	*now = now.Add(45 * time.Minute) // old* expired, fresh still live

	if removed := c.Sweep(); removed != 2 {
		t.Errorf("Sweep removed %d, want 2", removed)
	}
	if _, ok := c.Get("fresh", 1); !ok {
		t.Error("fresh entry should survive sweep")
	}
}
