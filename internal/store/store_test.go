package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	dsn := "sqlite:" + filepath.Join(t.TempDir(), "test.sqlite")
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := Migrate(ctx, s); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return s
}

func TestRegisterThenGetAuthAndPlayer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, err := HashPassword("pw123456", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	player, err := s.Register(ctx, "alice", hash, 0x112233FF)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if player.Nickname != "alice" || player.BestScore != 0 {
		t.Fatalf("unexpected registered player: %+v", player)
	}

	auth, err := s.GetAuthByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAuthByUsername failed: %v", err)
	}
	if !VerifyPassword(auth.PasswordHash, "pw123456") {
		t.Fatalf("stored password hash does not verify")
	}

	got, err := s.GetPlayerByAuthID(ctx, auth.ID)
	if err != nil {
		t.Fatalf("GetPlayerByAuthID failed: %v", err)
	}
	if got.ID != player.ID {
		t.Fatalf("expected player id %d, got %d", player.ID, got.ID)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, _ := HashPassword("pw123456", DefaultBcryptCost)
	if _, err := s.Register(ctx, "alice", hash, 0x112233FF); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if _, err := s.Register(ctx, "alice", hash, 0x445566FF); err == nil {
		t.Fatalf("expected second Register with same username to fail")
	}
}

func TestRegisterRejectsInvalidUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, _ := HashPassword("pw123456", DefaultBcryptCost)
	if _, err := s.Register(ctx, "", hash, 0); err == nil {
		t.Fatalf("expected empty username to be rejected")
	}
	if _, err := s.Register(ctx, "this-name-is-too-long", hash, 0); err == nil {
		t.Fatalf("expected username over 16 characters to be rejected")
	}
}

func TestGetAuthByUsernameNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetAuthByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBestScoreIsMonotone(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, _ := HashPassword("pw123456", DefaultBcryptCost)
	player, err := s.Register(ctx, "alice", hash, 0x112233FF)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := s.UpdateBestScore(ctx, player.ID, 100); err != nil {
		t.Fatalf("UpdateBestScore failed: %v", err)
	}
	if err := s.UpdateBestScore(ctx, player.ID, 50); err != nil {
		t.Fatalf("UpdateBestScore failed: %v", err)
	}

	auth, err := s.GetAuthByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAuthByUsername failed: %v", err)
	}
	got, err := s.GetPlayerByAuthID(ctx, auth.ID)
	if err != nil {
		t.Fatalf("GetPlayerByAuthID failed: %v", err)
	}
	if got.BestScore != 100 {
		t.Fatalf("expected best score to remain 100 after a lower write, got %d", got.BestScore)
	}
}

func TestTopNByBestScoreDescending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	hash, _ := HashPassword("pw123456", DefaultBcryptCost)
	names := []string{"alice", "bob", "carol"}
	scores := []int64{50, 200, 100}
	for i, name := range names {
		p, err := s.Register(ctx, name, hash, 0x000000FF)
		if err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
		if err := s.UpdateBestScore(ctx, p.ID, scores[i]); err != nil {
			t.Fatalf("UpdateBestScore %s failed: %v", name, err)
		}
	}

	top, err := s.TopNByBestScore(ctx, 2)
	if err != nil {
		t.Fatalf("TopNByBestScore failed: %v", err)
	}
	if len(top) != 2 || top[0].Nickname != "bob" || top[1].Nickname != "carol" {
		t.Fatalf("unexpected leaderboard order: %+v", top)
	}
}
