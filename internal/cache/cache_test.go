package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("sweep", []byte(`{"principal":400000}`))
	b := Key("sweep", []byte(`{"principal":400000}`))
	if a != b {
		t.Errorf("Key() is not deterministic: %s != %s", a, b)
	}
	if !strings.HasPrefix(a, "refinance:sweep:") {
		t.Errorf("unexpected key %s", a)
	}

	tests := []struct {
		name string
		kind string
		body string
	}{
		{"Different body", "sweep", `{"principal":400001}`},
		{"Different kind", "schedule", `{"principal":400000}`},
		{"Kind and body shifted", "swee", `p{"principal":400000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Key(tt.kind, []byte(tt.body)) == a {
				t.Error("expected a different key")
			}
		})
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	value := []byte("report")
	if err := c.Set(ctx, "k", value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "report" {
		t.Fatalf("Get(k) = %q, %v, %v; expected a stored copy", got, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire after its ttl")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be evicted on read, have %d entries", c.Len())
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	now = now.Add(24 * time.Hour)
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("entry without ttl should not expire")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		address string
		wantNil bool
		wantErr bool
	}{
		{"Default is memory", "", "", false, false},
		{"Memory", "memory", "", false, false},
		{"None", "none", "", true, false},
		{"Redis", "redis", "localhost:6379", false, false},
		{"Redis without address", "redis", "", true, true},
		{"Unknown", "memcached", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.backend, tt.address)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if (c == nil) != tt.wantNil {
				t.Errorf("New() = %v, wantNil %v", c, tt.wantNil)
			}
			if r, ok := c.(*RedisCache); ok {
				_ = r.Close()
			}
		})
	}
}
