package coachbuilder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/Cheese-chess-coach/internal/config"
	"github.com/park285/Cheese-chess-coach/internal/session"
)

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.AppConfig{
		HTTPAddr:      ":0",
		BotDelayMS:    0,
		SessionTTLSec: 60,
		HistoryLimit:  5,
		RandomSeed:    3,
		RedisURL:      "redis://" + mr.Addr() + "/0",
	}
	deps, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()

	sess, err := deps.Registry.Open(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := sess.Submit(context.Background(), session.MoveRequest{From: "e2", To: "e4"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !mr.Exists("coach:session:room-1") {
		t.Fatalf("expected the session snapshot in redis, keys=%v", mr.Keys())
	}

	srv := httptest.NewServer(deps.Handler)
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	cfg := &config.AppConfig{HTTPAddr: ":0", RedisURL: "http://nope"}
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected an error for a non-redis scheme")
	}
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected an error for nil config")
	}
}

func TestNewMemoryOnly(t *testing.T) {
	deps, err := New(context.Background(), &config.AppConfig{HTTPAddr: ":0", MsgcatDir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()
	if deps.Registry.Len() != 0 || deps.Hub == nil || deps.Assistant == nil {
		t.Fatalf("incomplete deps %+v", deps)
	}
}

func TestSweepIntervalClamps(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		time.Hour:        time.Minute,
		2 * time.Minute:  30 * time.Second,
		time.Second:      time.Second,
		10 * time.Second: 2500 * time.Millisecond,
	}
	for ttl, want := range cases {
		if got := sweepInterval(ttl); got != want {
			t.Fatalf("sweepInterval(%s) = %s, want %s", ttl, got, want)
		}
	}
}
