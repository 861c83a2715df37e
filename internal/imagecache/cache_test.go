package imagecache

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/config"
)

func TestKey_StableAndShort(t *testing.T) {
	a := Key("https://api.mapbox.com/styles/v1/mapbox/light-v11/static/auto/600x400")
	b := Key("https://api.mapbox.com/styles/v1/mapbox/light-v11/static/auto/600x400")
	c := Key("https://api.mapbox.com/styles/v1/mapbox/light-v11/static/auto/601x400")

	if a != b {
		t.Fatalf("Key not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different URLs share a key: %s", a)
	}
	if !strings.HasPrefix(a, "img:") || len(a) != len("img:")+16 {
		t.Fatalf("unexpected key shape %q", a)
	}
}

func TestMemory_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(2)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	_ = m.Set(ctx, "a", []byte("1"))
	_ = m.Set(ctx, "b", []byte("2"))
	_ = m.Set(ctx, "c", []byte("3"))

	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Error("Expected a to be evicted")
	}
	if v, ok, _ := m.Get(ctx, "c"); !ok || string(v) != "3" {
		t.Errorf("Expected c=3, got %q ok=%v", v, ok)
	}
	if m.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", m.Len())
	}
}

func TestMemory_InvalidSize(t *testing.T) {
	if _, err := NewMemory(0); err == nil {
		t.Fatal("Expected error for zero size")
	}
}

func TestRedis_RoundTripAndTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := NewRedis(ctx, mr.Addr(), 2*time.Second)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	if _, ok, err := rc.Get(ctx, "img:missing"); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	png := []byte{0x89, 'P', 'N', 'G'}
	if err := rc.Set(ctx, "img:1", png); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := rc.Get(ctx, "img:1")
	if err != nil || !ok || string(got) != string(png) {
		t.Fatalf("hit: got=%v ok=%v err=%v", got, ok, err)
	}

	mr.FastForward(3 * time.Second)

	if _, ok, _ := rc.Get(ctx, "img:1"); ok {
		t.Fatal("Expected entry to expire")
	}
}

func TestNew_Drivers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		want    string
		wantErr bool
	}{
		{"none", config.CacheConfig{Driver: "none"}, "imagecache.None", false},
		{"empty", config.CacheConfig{}, "imagecache.None", false},
		{"memory", config.CacheConfig{Driver: "memory", Size: 8}, "*imagecache.Memory", false},
		{"redis", config.CacheConfig{Driver: "redis", RedisAddr: mr.Addr(), TTL: time.Hour}, "*imagecache.Redis", false},
		{"unknown", config.CacheConfig{Driver: "memcached"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if internal.CodeOf(err) != internal.ErrorCodeConfig {
					t.Errorf("Expected CONFIG_ERROR, got %v", err)
				}
				return
			}
			defer c.Close()

			var got string
			switch c.(type) {
			case None:
				got = "imagecache.None"
			case *Memory:
				got = "*imagecache.Memory"
			case *Redis:
				got = "*imagecache.Redis"
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %T", tt.want, c)
			}
		})
	}
}
