package hub

import (
	"testing"
	"time"

	"github.com/orbitclash/server/internal/codec"
	"github.com/orbitclash/server/internal/command"
	"github.com/orbitclash/server/internal/model"
	"github.com/orbitclash/server/internal/queue"
)

// fixedRand is a deterministic model.Rand that always returns the same
// value, used where the exact spawn position is irrelevant to the assertion.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func newTestHub() *Hub {
	return New(fixedRand{v: 0.5})
}

func registerClient(t *testing.T, h *Hub) (connID string, out *queue.Unbounded[command.AgentCommand]) {
	t.Helper()
	out = queue.NewUnbounded[command.AgentCommand]()
	reply := make(chan string, 1)
	h.handleRegisterClientAgent(command.RegisterClientAgent{SocketAddr: "127.0.0.1:1234", Outbound: out, Reply: reply})
	connID = <-reply
	return connID, out
}

func TestRegisterClientAgentAssignsUniqueConnectionIDs(t *testing.T) {
	h := newTestHub()
	id1, _ := registerClient(t, h)
	id2, _ := registerClient(t, h)
	if id1 == id2 {
		t.Fatalf("expected distinct connection ids, got %q twice", id1)
	}
	if len(h.world.Clients) != 2 {
		t.Fatalf("expected 2 registered clients, got %d", len(h.world.Clients))
	}
}

func TestJoinSendsNearestFirstSporeBatch(t *testing.T) {
	h := newTestHub()
	h.world.Spores = map[string]*model.Spore{
		"far":    {ID: "far", X: 1000, Y: 0, Radius: 10},
		"near":   {ID: "near", X: 10, Y: 0, Radius: 10},
		"middle": {ID: "middle", X: 100, Y: 0, Radius: 10},
	}

	connID, out := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connID, PlayerDBID: 1, Nickname: "alice", Color: 0x112233FF})

	client := h.world.Clients[connID]
	if client.Player == nil {
		t.Fatalf("expected join to create a player")
	}
	// fixedRand always yields 0.5, which randomCoord maps to the origin,
	// so the spawned player sits at (0,0) deterministically.
	if client.Player.X != 0 || client.Player.Y != 0 {
		t.Fatalf("expected deterministic spawn at origin, got (%v, %v)", client.Player.X, client.Player.Y)
	}

	got := <-out.Out()
	batch, ok := got.(command.UpdateSporeBatch)
	if !ok {
		t.Fatalf("expected UpdateSporeBatch, got %T", got)
	}
	if len(batch.Spores) != 3 {
		t.Fatalf("expected 3 spores in batch, got %d", len(batch.Spores))
	}
	if batch.Spores[0].ID != "near" || batch.Spores[2].ID != "far" {
		t.Fatalf("expected nearest-first order, got %v", batch.Spores)
	}
}

func TestDuplicateLoginDisplacesPriorSession(t *testing.T) {
	h := newTestHub()

	connA, outA := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connA, PlayerDBID: 42, Nickname: "alice", Color: 0x112233FF})
	<-outA.Out() // drain A's cold-start UpdateSporeBatch

	connB, _ := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connB, PlayerDBID: 42, Nickname: "alice", Color: 0x112233FF})

	select {
	case cmd := <-outA.Out():
		if _, ok := cmd.(command.DisconnectClient); !ok {
			t.Fatalf("expected DisconnectClient for displaced session A, got %T", cmd)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected connection A to receive a displacement command")
	}

	if h.world.Clients[connB].Player == nil {
		t.Fatalf("expected connection B to remain joined")
	}
}

func TestConsumeSporeWithinProximity(t *testing.T) {
	h := newTestHub()
	connID, out := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connID, PlayerDBID: 1, Nickname: "alice", Color: 0x112233FF})
	<-out.Out() // drain the cold-start UpdateSporeBatch

	client := h.world.Clients[connID]
	client.Player.X, client.Player.Y, client.Player.Radius = 0, 0, 20

	h.world.Spores["s1"] = &model.Spore{ID: "s1", X: 25, Y: 0, Radius: 10}

	h.handleConsumeSpore(command.ConsumeSpore{ConnectionID: connID, SporeID: "s1"})

	if _, stillPresent := h.world.Spores["s1"]; stillPresent {
		t.Fatalf("expected consumed spore to be removed")
	}

	<-out.Out() // drain the ConsumeSpore broadcast, which reaches the eater too

	cmd := <-out.Out()
	sync, ok := cmd.(command.SyncPlayerBestScore)
	if !ok {
		t.Fatalf("expected SyncPlayerBestScore, got %T", cmd)
	}
	if sync.CurrentScore < 1500 || sync.CurrentScore > 1600 {
		t.Fatalf("expected score near 1570, got %d", sync.CurrentScore)
	}
}

func TestConsumeSporeTooFarIsDropped(t *testing.T) {
	h := newTestHub()
	connID, out := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connID, PlayerDBID: 1, Nickname: "alice", Color: 0x112233FF})
	<-out.Out()

	client := h.world.Clients[connID]
	client.Player.X, client.Player.Y, client.Player.Radius = 0, 0, 20

	h.world.Spores["s1"] = &model.Spore{ID: "s1", X: 200, Y: 0, Radius: 10}

	h.handleConsumeSpore(command.ConsumeSpore{ConnectionID: connID, SporeID: "s1"})

	if _, stillPresent := h.world.Spores["s1"]; !stillPresent {
		t.Fatalf("expected spore out of range to remain in the world")
	}
	select {
	case cmd := <-out.Out():
		t.Fatalf("expected no command sent for a rejected consume, got %T", cmd)
	default:
	}
}

func TestRushBelowThresholdIsNoOp(t *testing.T) {
	h := newTestHub()
	connID, _ := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connID, PlayerDBID: 1, Nickname: "alice", Color: 0x112233FF})

	client := h.world.Clients[connID]
	client.Player.Radius = 19
	client.Player.Speed = model.InitSpeed

	h.handleRush(command.Rush{ConnectionID: connID})

	if client.Player.InRush() || client.Player.Speed != model.InitSpeed {
		t.Fatalf("expected rush below threshold to be a no-op, got %+v", client.Player)
	}
}

func TestConsumePlayerTransfersMassAndRespawnsVictim(t *testing.T) {
	h := newTestHub()

	killerConn, killerOut := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: killerConn, PlayerDBID: 1, Nickname: "killer", Color: 0x112233FF})
	<-killerOut.Out()

	victimConn, victimOut := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: victimConn, PlayerDBID: 2, Nickname: "victim", Color: 0x445566FF})
	<-victimOut.Out()

	killer := h.world.Clients[killerConn].Player
	victim := h.world.Clients[victimConn].Player
	killer.X, killer.Y, killer.Radius = 0, 0, 50
	victim.X, victim.Y, victim.Radius = 5, 0, 20

	h.handleConsumePlayer(command.ConsumePlayer{ConnectionID: killerConn, VictimConnectionID: victimConn})

	if killer.Radius <= 50 {
		t.Fatalf("expected killer to grow, got radius %v", killer.Radius)
	}
	if victim.Radius != model.InitRadius {
		t.Fatalf("expected victim to respawn at init radius, got %v", victim.Radius)
	}
}

func TestSporeCountNeverExceedsMax(t *testing.T) {
	h := newTestHub()
	for i := 0; i < MaxSporeCount+50; i++ {
		h.onSpawn()
	}
	if len(h.world.Spores) > MaxSporeCount {
		t.Fatalf("spore count %d exceeds MaxSporeCount %d", len(h.world.Spores), MaxSporeCount)
	}
}

func TestChatBroadcastsToJoinedClients(t *testing.T) {
	h := newTestHub()
	connID, out := registerClient(t, h)
	h.handleJoin(command.Join{ConnectionID: connID, PlayerDBID: 1, Nickname: "alice", Color: 0x112233FF})
	<-out.Out()

	h.handleChat(command.Chat{ConnectionID: connID, Message: "hi"})

	cmd := <-out.Out()
	bytes, ok := cmd.(command.SendBytes)
	if !ok {
		t.Fatalf("expected SendBytes, got %T", cmd)
	}
	pkt, err := codec.DecodeFrame(bytes.Bytes)
	if err != nil {
		t.Fatalf("decoding broadcast frame: %v", err)
	}
	chat, ok := pkt.(codec.Chat)
	if !ok || chat.Message != "hi" {
		t.Fatalf("expected Chat{Message: hi}, got %+v", pkt)
	}
}
