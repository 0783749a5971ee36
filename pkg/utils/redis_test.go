package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestConcurrencyCap_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := AcquireConcurrencyCap(ctx, rdb, "cap", 2, time.Minute)
		if err != nil || !ok {
			t.Fatalf("acquire %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := AcquireConcurrencyCap(ctx, rdb, "cap", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatalf("expected third acquire to be rejected")
	}

	if err := ReleaseConcurrencyCap(ctx, rdb, "cap"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = AcquireConcurrencyCap(ctx, rdb, "cap", 2, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, ok=%v err=%v", ok, err)
	}
}

func TestConcurrencyCap_TTLFreesLeakedSlot(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	if ok, err := AcquireConcurrencyCap(ctx, rdb, "leak", 1, 30*time.Second); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	mr.FastForward(31 * time.Second)

	if ok, err := AcquireConcurrencyCap(ctx, rdb, "leak", 1, 30*time.Second); err != nil || !ok {
		t.Fatalf("expected slot after ttl, ok=%v err=%v", ok, err)
	}
}

func TestConcurrencyCap_ReleaseDeletesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	if _, err := AcquireConcurrencyCap(ctx, rdb, "k", 1, time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := ReleaseConcurrencyCap(ctx, rdb, "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("k") {
		t.Fatalf("expected key deleted at zero")
	}
}

func TestConcurrencyCap_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	if _, err := AcquireConcurrencyCap(ctx, nil, "k", 1, time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := AcquireConcurrencyCap(ctx, rdb, "", 1, time.Minute); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := AcquireConcurrencyCap(ctx, rdb, "k", 0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := AcquireConcurrencyCap(ctx, rdb, "k", 1, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestConcurrencyCap_ReleaseAfterExpiryIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	if ok, err := AcquireConcurrencyCap(ctx, rdb, "late", 1, time.Second); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	mr.FastForward(2 * time.Second)
	if err := ReleaseConcurrencyCap(ctx, rdb, "late"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("late") {
		t.Fatalf("release must not recreate an expired counter")
	}
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rdb.Close()

	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}
