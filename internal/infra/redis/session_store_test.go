package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"movie-quiz/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute, nil)

	store.Add(&app.GameSession{ID: "game-1", StartedAt: time.Now()})
	if !mr.Exists("moviequiz:session:game-1") {
		t.Fatalf("expected redis key to be set")
	}
	if store.Count() != 1 {
		t.Fatalf("expected one session, got %d", store.Count())
	}

	store.Remove("game-1")
	if mr.Exists("moviequiz:session:game-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreRefreshKeepsLongGamesLive(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute, nil)
	store.Add(&app.GameSession{ID: "long", StartedAt: time.Now()})
	store.Add(&app.GameSession{ID: "ended", StartedAt: time.Now()})
	store.Remove("ended")

	// refresh before the marker expires, then run past the original ttl
	mr.FastForward(45 * time.Second)
	store.refresh(context.Background())
	mr.FastForward(45 * time.Second)

	if !mr.Exists("moviequiz:session:long") {
		t.Fatalf("expected running game marker to outlive the original ttl")
	}
	if mr.Exists("moviequiz:session:ended") {
		t.Fatalf("ended game must not be re-marked")
	}

	store.Remove("long")
	mr.FastForward(2 * time.Minute)
	if mr.Exists("moviequiz:session:long") {
		t.Fatalf("expected removed game marker to be gone")
	}
}
