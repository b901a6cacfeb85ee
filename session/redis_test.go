package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis records the commands RedisHistory issues and simulates a list.
type fakeRedis struct {
	ops     []string
	keys    []string
	trims   [][2]int64
	ranges  [][2]int64
	expires []time.Duration

	list    []string
	pushErr error
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.ops = append(f.ops, "LPUSH")
	f.keys = append(f.keys, key)
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		switch value := v.(type) {
		case []byte:
			f.list = append([]string{string(value)}, f.list...)
		case string:
			f.list = append([]string{value}, f.list...)
		}
	}
	return redis.NewIntResult(int64(len(f.list)), nil)
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	f.ops = append(f.ops, "LTRIM")
	f.keys = append(f.keys, key)
	f.trims = append(f.trims, [2]int64{start, stop})
	if stop >= 0 && int64(len(f.list)) > stop+1 {
		f.list = f.list[:stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	f.ops = append(f.ops, "LRANGE")
	f.keys = append(f.keys, key)
	f.ranges = append(f.ranges, [2]int64{start, stop})

	if start >= int64(len(f.list)) {
		return redis.NewStringSliceResult([]string{}, nil)
	}
	end := stop + 1
	if stop < 0 || end > int64(len(f.list)) {
		end = int64(len(f.list))
	}
	out := make([]string, 0, end-start)
	out = append(out, f.list[start:end]...)
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ops = append(f.ops, "EXPIRE")
	f.keys = append(f.keys, key)
	f.expires = append(f.expires, expiration)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.ops = append(f.ops, "DEL")
	f.keys = append(f.keys, keys...)
	f.list = nil
	return redis.NewIntResult(1, nil)
}

func TestRedisHistory_AppendCommandShape(t *testing.T) {
	fake := &fakeRedis{}
	h := newRedisHistoryWithClient(fake, RedisHistoryConfig{MaxTurns: 5, TTL: time.Hour})
	ctx := context.Background()

	if err := h.Append(ctx, "s1", turn("user", "hola")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	wantOps := []string{"LPUSH", "LTRIM", "EXPIRE"}
	if len(fake.ops) != len(wantOps) {
		t.Fatalf("ops = %v, want %v", fake.ops, wantOps)
	}
	for i, op := range wantOps {
		if fake.ops[i] != op {
			t.Errorf("op %d = %q, want %q", i, fake.ops[i], op)
		}
	}
	for _, key := range fake.keys {
		if key != "feriado:chat:s1:turns" {
			t.Errorf("key = %q, want feriado:chat:s1:turns", key)
		}
	}
	if fake.trims[0] != [2]int64{0, 4} {
		t.Errorf("trim range = %v, want [0 4]", fake.trims[0])
	}
	if fake.expires[0] != time.Hour {
		t.Errorf("expire = %v, want 1h", fake.expires[0])
	}

	var stored Turn
	if err := json.Unmarshal([]byte(fake.list[0]), &stored); err != nil {
		t.Fatalf("stored payload is not JSON: %v", err)
	}
	if stored.Role != "user" || stored.Content != "hola" {
		t.Errorf("stored turn = %+v", stored)
	}
}

func TestRedisHistory_NoTTLSkipsExpire(t *testing.T) {
	fake := &fakeRedis{}
	h := newRedisHistoryWithClient(fake, RedisHistoryConfig{MaxTurns: 5})

	if err := h.Append(context.Background(), "s1", turn("user", "hola")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	for _, op := range fake.ops {
		if op == "EXPIRE" {
			t.Error("EXPIRE should not be issued when TTL is zero")
		}
	}
}

func TestRedisHistory_RecentParsesNewestFirst(t *testing.T) {
	fake := &fakeRedis{}
	h := newRedisHistoryWithClient(fake, RedisHistoryConfig{MaxTurns: 10})
	ctx := context.Background()

	for _, c := range []string{"first", "second", "third"} {
		if err := h.Append(ctx, "s1", turn("user", c)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recent, err := h.Recent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d turns, want 2", len(recent))
	}
	if recent[0].Content != "third" || recent[1].Content != "second" {
		t.Errorf("recent = [%q, %q], want newest first", recent[0].Content, recent[1].Content)
	}
	last := fake.ranges[len(fake.ranges)-1]
	if last != [2]int64{0, 1} {
		t.Errorf("LRANGE bounds = %v, want [0 1]", last)
	}
}

func TestRedisHistory_RecentSkipsMalformedEntries(t *testing.T) {
	fake := &fakeRedis{list: []string{`{"role":"user","content":"ok"}`, "not-json"}}
	h := newRedisHistoryWithClient(fake, RedisHistoryConfig{})

	recent, err := h.Recent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Content != "ok" {
		t.Errorf("recent = %+v, want the single valid turn", recent)
	}
}

func TestRedisHistory_AppendErrorWraps(t *testing.T) {
	cause := errors.New("connection refused")
	fake := &fakeRedis{pushErr: cause}
	h := newRedisHistoryWithClient(fake, RedisHistoryConfig{})

	err := h.Append(context.Background(), "s1", turn("user", "hola"))
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped cause", err)
	}
}

func TestRedisHistory_Clear(t *testing.T) {
	fake := &fakeRedis{list: []string{"x"}}
	h := newRedisHistoryWithClient(fake, RedisHistoryConfig{})

	if err := h.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if fake.ops[len(fake.ops)-1] != "DEL" {
		t.Errorf("ops = %v, want DEL issued", fake.ops)
	}
}

func TestNewRedisHistory_RejectsBadURL(t *testing.T) {
	_, err := NewRedisHistory("not-a-url", RedisHistoryConfig{})
	if err == nil || !strings.Contains(err.Error(), "invalid redis URL") {
		t.Errorf("error = %v, want invalid redis URL", err)
	}
}
