package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/feedrank/core"
)

func backends(t *testing.T) map[string]core.KeyValueStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "feedrank.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	mem := NewMemoryStore()
	t.Cleanup(func() {
		_ = sqlite.Close()
		_ = mem.Close()
	})
	return map[string]core.KeyValueStore{"memory": mem, "sqlite": sqlite}
}

func TestKeyValue(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
				t.Fatalf("Get(missing) error = %v, want not found", err)
			}
			if err := s.Set(ctx, "k", []byte("v1")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(ctx, "k", []byte("v2")); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}
			got, err := s.Get(ctx, "k")
			if err != nil || string(got) != "v2" {
				t.Fatalf("Get() = %q, %v", got, err)
			}
			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
				t.Errorf("Get after Delete error = %v", err)
			}
		})
	}
}

func TestHash(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.HGet(ctx, "seen:u1", "p1"); !core.IsStoreNotFound(err) {
				t.Fatalf("HGet(missing) error = %v", err)
			}
			all, err := s.HGetAll(ctx, "seen:u1")
			if err != nil || len(all) != 0 {
				t.Fatalf("HGetAll(empty) = %v, %v", all, err)
			}
			_ = s.HSet(ctx, "seen:u1", "p1", []byte("100"))
			_ = s.HSet(ctx, "seen:u1", "p2", []byte("200"))
			_ = s.HSet(ctx, "seen:u1", "p1", []byte("300"))
			_ = s.HSet(ctx, "seen:u2", "p9", []byte("1"))

			v, err := s.HGet(ctx, "seen:u1", "p1")
			if err != nil || string(v) != "300" {
				t.Errorf("HGet() = %q, %v", v, err)
			}
			all, err = s.HGetAll(ctx, "seen:u1")
			if err != nil || len(all) != 2 || string(all["p2"]) != "200" {
				t.Errorf("HGetAll() = %v, %v", all, err)
			}

			_ = s.Delete(ctx, "seen:u1")
			all, _ = s.HGetAll(ctx, "seen:u1")
			if len(all) != 0 {
				t.Errorf("HGetAll after Delete = %v", all)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Driver: "memory"})
	if err != nil || s.Name() != "memory" {
		t.Fatalf("Open(memory) = %v, %v", s, err)
	}
	_ = s.Close()

	_, err = Open(Config{Driver: "etcd"})
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeNotSupported {
		t.Errorf("Open(etcd) error = %v, want not supported", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	s, err := NewRedisStoreFromClient(ctx, client)
	if s != nil {
		t.Fatal("store returned for an unreachable server")
	}
	if de := core.GetDomainError(err); de == nil || de.Code != core.ErrorCodeUnavailable {
		t.Errorf("NewRedisStoreFromClient() error = %v, want unavailable", err)
	}
}
