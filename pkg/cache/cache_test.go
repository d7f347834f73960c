package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	tests := []struct {
		name    string
		ttl     time.Duration
		wantHit bool
	}{
		{"no expiry", 0, true},
		{"future expiry", time.Hour, true},
		{"negative ttl never expires", -time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "k-" + tt.name
			if err := c.Set(ctx, key, []byte(tt.name), tt.ttl); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			data, hit, err := c.Get(ctx, key)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if hit != tt.wantHit || string(data) != tt.name {
				t.Errorf("Get() = %q, %v; want %q, %v", data, hit, tt.name, tt.wantHit)
			}
		})
	}

	if err := c.Delete(ctx, "k-no expiry"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k-no expiry"); hit {
		t.Error("Get() after Delete() hit")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k-future expiry"); hit {
		t.Error("Get() after Clear() hit")
	}
}

func TestCompressed(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	c, err := NewCompressed(fc)
	if err != nil {
		t.Fatalf("NewCompressed() error: %v", err)
	}
	defer c.Close()

	payload := bytes.Repeat([]byte(`{"genotypes":[1,2,3]}`), 200)
	if err := c.Set(ctx, "k", payload, 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	raw, hit, err := fc.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("inner Get() = %v, %v", hit, err)
	}
	if len(raw) >= len(payload) {
		t.Errorf("stored %d bytes for %d byte payload", len(raw), len(payload))
	}

	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || !bytes.Equal(got, payload) {
		t.Errorf("Get() = %d bytes, %v, %v", len(got), hit, err)
	}

	// Corrupt entries are dropped.
	if err := fc.Set(ctx, "bad", []byte("not zstd"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v; want miss", hit, err)
	}
	if _, hit, _ := fc.Get(ctx, "bad"); hit {
		t.Error("corrupt entry was not deleted")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("distinct inputs share a hash")
	}
	if got := len(Hash(nil)); got != 64 {
		t.Errorf("len(Hash()) = %d, want 64", got)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	a := k.LocusKey("h", "M1", LocusKeyOpts{WordBits: 64})
	b := k.LocusKey("h", "M1", LocusKeyOpts{WordBits: 32})
	c := k.LocusKey("h", "M2", LocusKeyOpts{WordBits: 64})
	if a == b || a == c {
		t.Errorf("keys collide: %s %s %s", a, b, c)
	}
	if !strings.HasPrefix(a, "locus:") {
		t.Errorf("LocusKey() = %s, want locus: prefix", a)
	}
	if d := k.DiagnosisKey("h", "M1"); !strings.HasPrefix(d, "diagnosis:") {
		t.Errorf("DiagnosisKey() = %s", d)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(nil, "api:")

	opts := LocusKeyOpts{Prune: true}
	if got, want := scoped.LocusKey("h", "M1", opts), "api:"+inner.LocusKey("h", "M1", opts); got != want {
		t.Errorf("LocusKey() = %s, want %s", got, want)
	}
	if got, want := scoped.DiagnosisKey("h", "M1"), "api:"+inner.DiagnosisKey("h", "M1"); got != want {
		t.Errorf("DiagnosisKey() = %s, want %s", got, want)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	fast := Backoff{Attempts: 3, Delay: time.Millisecond}
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, true, 1, false},
		{"one retry", 1, true, 2, false},
		{"exhausted", 5, true, 3, true},
		{"not retryable", 5, false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, fast, func() error {
				calls++
				if calls > tt.failures {
					return nil
				}
				if tt.retryable {
					return Retryable(ErrNetwork)
				}
				return errFatal
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, Backoff{Attempts: 3, Delay: time.Hour}, func() error {
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
