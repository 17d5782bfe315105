package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// storageModes returns every Storage implementation backed by a fresh instance
func storageModes(t *testing.T) map[string]func(t *testing.T) Storage {
	t.Helper()
	return map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage {
			return NewMemoryStorage()
		},
		"file": func(t *testing.T) Storage {
			return NewFileStorage(filepath.Join(t.TempDir(), "nested", "state.yaml"))
		},
		"redis": func(t *testing.T) Storage {
			t.Helper()
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return NewRedisStorage(rdb, "test:")
		},
	}
}

func TestStorage_Contract(t *testing.T) {
	t.Parallel()

	for name, newStorage := range storageModes(t) {
		newStorage := newStorage
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := newStorage(t)

			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = (_, %v, %v), want absent without error", ok, err)
			}

			if err := s.Set(ctx, "k", "v1"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, "k", "v2"); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}
			v, ok, err := s.Get(ctx, "k")
			if err != nil || !ok || v != "v2" {
				t.Fatalf("Get(k) = (%q, %v, %v), want (v2, true, nil)", v, ok, err)
			}

			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete() twice error = %v", err)
			}
			if _, ok, _ := s.Get(ctx, "k"); ok {
				t.Error("Get(k) after Delete() should be absent")
			}
		})
	}
}

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")

	store := NewStore(NewFileStorage(path), nil)
	if err := store.Save(ctx, "h.p.s"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened := NewStore(NewFileStorage(path), nil)
	if got, ok := reopened.Get(ctx); !ok || got != "h.p.s" {
		t.Errorf("Get() from reopened store = (%q, %v), want (h.p.s, true)", got, ok)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("state file mode = %o, want 600", perm)
	}
}

func TestFileStorage_CorruptFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("jwt_token: [unterminated"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, _, err := NewFileStorage(path).Get(ctx, TokenKey); err == nil {
		t.Error("Get() on corrupt file expected error")
	}

	store := NewStore(NewFileStorage(path), nil)
	if _, ok := store.Get(ctx); ok {
		t.Error("Store.Get() on corrupt file should report no token")
	}
}

func TestRedisStorage_Prefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewStore(NewRedisStorage(rdb, "smart-blog:"), nil)
	if err := store.Save(ctx, "h.p.s"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := mr.Get("smart-blog:" + TokenKey)
	if err != nil {
		t.Fatalf("miniredis Get() error = %v", err)
	}
	if got != "h.p.s" {
		t.Errorf("stored value = %q, want h.p.s", got)
	}
}

func TestDialRedisStorage_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := DialRedisStorage("not a url", "p:"); err == nil {
		t.Error("DialRedisStorage() expected error for bad URL")
	}
}

func TestDialRedisStorage(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	s, err := DialRedisStorage("redis://"+mr.Addr()+"/0", "p:")
	if err != nil {
		t.Fatalf("DialRedisStorage() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Set(context.Background(), "k", "v"); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}
