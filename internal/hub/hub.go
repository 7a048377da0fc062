// Package hub implements the single-writer authoritative simulation loop.
// One goroutine (Run) owns every mutable piece of world state; every other
// actor communicates with it exclusively through HubCommand values sent on
// its inbound channel. This is load-bearing: no lock ever guards Clients,
// Spores, or any Player — do not introduce one.
package hub

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/orbitclash/server/internal/codec"
	"github.com/orbitclash/server/internal/command"
	"github.com/orbitclash/server/internal/geometry"
	"github.com/orbitclash/server/internal/model"
	"github.com/orbitclash/server/internal/queue"
)

const (
	TickDuration       = 50 * time.Millisecond
	SpawnSporeDuration = 2 * time.Second
	MaxSporeCount      = 1000
)

// Hub is the central simulation loop. Inbound is backed by an unbounded
// queue, like every per-agent outbound queue — an agent must never block
// sending a command just as the hub must never block broadcasting one.
type Hub struct {
	inbound *queue.Unbounded[command.HubCommand]
	rng     model.Rand
	world   *World
}

// New constructs a Hub with an empty inbound queue. Call Run to start the
// simulation loop; call Inbound to obtain the channel agents send on.
func New(rng model.Rand) *Hub {
	return &Hub{
		inbound: queue.NewUnbounded[command.HubCommand](),
		rng:     rng,
		world:   newWorld(),
	}
}

// Inbound returns the channel client agents send HubCommand values on.
func (h *Hub) Inbound() chan<- command.HubCommand {
	return h.inbound.In()
}

// Run prefills the spore map, then drives the tick/spawn/command select
// loop until ctx is done. It never returns an error: every command handler
// is total and drops the command on any missing referent, per the recovery
// policy — the hub must never crash.
func (h *Hub) Run(ctx context.Context) {
	for len(h.world.Spores) < MaxSporeCount {
		s := model.RandomSpore(uuid.NewString(), h.rng)
		h.world.Spores[s.ID] = s
	}

	tickTicker := time.NewTicker(TickDuration)
	defer tickTicker.Stop()
	spawnTicker := time.NewTicker(SpawnSporeDuration)
	defer spawnTicker.Stop()

	h.world.LastTick = time.Now()

	slog.Info("hub started", "prefilled_spores", len(h.world.Spores))

	for {
		select {
		case <-ctx.Done():
			slog.Info("hub stopping")
			return
		case now := <-tickTicker.C:
			h.onTick(now)
		case <-spawnTicker.C:
			h.onSpawn()
		case cmd := <-h.inbound.Out():
			h.onCommand(cmd)
		}
	}
}

func (h *Hub) onTick(now time.Time) {
	delta := now.Sub(h.world.LastTick)
	h.world.LastTick = now

	var deferredSporeUpdates []codec.UpdateSpore

	for _, client := range h.world.Clients {
		p := client.Player
		if p == nil {
			continue
		}
		p.Tick(delta, now)

		if h.rng.Float64() < p.Radius/(MaxSporeCount*4.0) {
			dropMass := geometry.RadiusToMass(min(15, 5+p.Radius/50))
			if dropped, ok := p.TryDropMass(dropMass); ok {
				s := &model.Spore{
					ID:     uuid.NewString(),
					X:      p.X,
					Y:      p.Y,
					Radius: geometry.MassToRadius(dropped),
				}
				h.world.Spores[s.ID] = s
				deferredSporeUpdates = append(deferredSporeUpdates, codec.UpdateSpore{
					SporeID: s.ID, X: s.X, Y: s.Y, Radius: s.Radius,
				})
			}
		}
	}

	var players []codec.UpdatePlayer
	for _, client := range h.world.Clients {
		if client.Player == nil {
			continue
		}
		players = append(players, toUpdatePlayer(client))
	}
	h.broadcast(codec.UpdatePlayerBatch{Players: players})

	for _, u := range deferredSporeUpdates {
		h.broadcast(u)
	}
}

func (h *Hub) onSpawn() {
	if len(h.world.Spores) >= MaxSporeCount {
		return
	}
	s := model.RandomSpore(uuid.NewString(), h.rng)
	h.world.Spores[s.ID] = s
	h.broadcast(codec.UpdateSpore{SporeID: s.ID, X: s.X, Y: s.Y, Radius: s.Radius})
}

func (h *Hub) onCommand(cmd command.HubCommand) {
	switch c := cmd.(type) {
	case command.RegisterClientAgent:
		h.handleRegisterClientAgent(c)
	case command.UnregisterClientAgent:
		h.handleUnregisterClientAgent(c)
	case command.Join:
		h.handleJoin(c)
	case command.Chat:
		h.handleChat(c)
	case command.UpdatePlayerDirectionAngle:
		h.handleUpdatePlayerDirectionAngle(c)
	case command.ConsumeSpore:
		h.handleConsumeSpore(c)
	case command.ConsumePlayer:
		h.handleConsumePlayer(c)
	case command.Rush:
		h.handleRush(c)
	default:
		slog.Error("hub: unrecognized command", "type", c)
	}
}

func (h *Hub) handleRegisterClientAgent(c command.RegisterClientAgent) {
	connID := uuid.NewString()
	h.world.Clients[connID] = &Client{
		ConnectionID: connID,
		SocketAddr:   c.SocketAddr,
		Outbound:     c.Outbound,
	}
	c.Reply <- connID
}

func (h *Hub) handleUnregisterClientAgent(c command.UnregisterClientAgent) {
	delete(h.world.Clients, c.ConnectionID)
	h.broadcast(codec.Disconnect{ConnectionID: c.ConnectionID, Reason: "unregister"})
}

func (h *Hub) handleJoin(c command.Join) {
	for _, other := range h.world.Clients {
		if other.Player != nil && other.Player.DBID == c.PlayerDBID && other.ConnectionID != c.ConnectionID {
			other.Outbound.In() <- command.DisconnectClient{Reason: "displaced"}
		}
	}

	client, ok := h.world.Clients[c.ConnectionID]
	if !ok {
		slog.Error("hub: join for unknown connection", "connection_id", c.ConnectionID)
		return
	}

	player := model.RandomPlayer(c.PlayerDBID, c.ConnectionID, c.Nickname, c.Color, h.rng)
	client.Player = player

	snapshot := make([]command.SporeSnapshot, 0, len(h.world.Spores))
	for _, s := range h.world.Spores {
		snapshot = append(snapshot, command.SporeSnapshot{ID: s.ID, X: s.X, Y: s.Y, Radius: s.Radius})
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return squaredDistance(player.X, player.Y, snapshot[i].X, snapshot[i].Y) <
			squaredDistance(player.X, player.Y, snapshot[j].X, snapshot[j].Y)
	})

	client.Outbound.In() <- command.UpdateSporeBatch{Spores: snapshot}
}

func (h *Hub) handleChat(c command.Chat) {
	h.broadcast(codec.Chat{ConnectionID: c.ConnectionID, Message: c.Message})
}

func (h *Hub) handleUpdatePlayerDirectionAngle(c command.UpdatePlayerDirectionAngle) {
	client, ok := h.world.Clients[c.ConnectionID]
	if !ok || client.Player == nil {
		return
	}
	client.Player.DirectionAngle = c.DirectionAngle
}

func (h *Hub) handleConsumeSpore(c command.ConsumeSpore) {
	client, ok := h.world.Clients[c.ConnectionID]
	if !ok || client.Player == nil {
		return
	}
	spore, ok := h.world.Spores[c.SporeID]
	if !ok {
		return
	}

	player := client.Player
	if !geometry.IsClose(player.X, player.Y, player.Radius, spore.X, spore.Y, spore.Radius) {
		slog.Warn("hub: consume spore rejected, not close enough",
			"connection_id", c.ConnectionID, "spore_id", c.SporeID)
		return
	}

	player.IncreaseMass(geometry.RadiusToMass(spore.Radius))
	delete(h.world.Spores, c.SporeID)

	h.broadcast(codec.ConsumeSpore{ConnectionID: c.ConnectionID, SporeID: c.SporeID})

	client.Outbound.In() <- command.SyncPlayerBestScore{CurrentScore: int64(geometry.RadiusToMass(player.Radius))}
}

func (h *Hub) handleConsumePlayer(c command.ConsumePlayer) {
	killerClient, ok := h.world.Clients[c.ConnectionID]
	if !ok || killerClient.Player == nil {
		return
	}
	victimClient, ok := h.world.Clients[c.VictimConnectionID]
	if !ok || victimClient.Player == nil {
		return
	}

	killer, victim := killerClient.Player, victimClient.Player
	if !geometry.IsClose(killer.X, killer.Y, killer.Radius, victim.X, victim.Y, victim.Radius) {
		return
	}

	killer.IncreaseMass(geometry.RadiusToMass(victim.Radius))
	victim.Respawn(h.rng)
}

func (h *Hub) handleRush(c command.Rush) {
	client, ok := h.world.Clients[c.ConnectionID]
	if !ok || client.Player == nil {
		return
	}
	player := client.Player
	if player.Radius < 20 || player.InRush() {
		return
	}

	dropMass := 0.2 * geometry.RadiusToMass(player.Radius)
	dropped, ok := player.TryDropMass(dropMass)
	if !ok {
		return
	}

	player.Rush(time.Now())

	s := &model.Spore{
		ID:     uuid.NewString(),
		X:      player.X,
		Y:      player.Y,
		Radius: geometry.MassToRadius(dropped),
	}
	h.world.Spores[s.ID] = s
	h.broadcast(codec.UpdateSpore{SporeID: s.ID, X: s.X, Y: s.Y, Radius: s.Radius})
}

// broadcast encodes p once and enqueues a SendBytes command on every
// joined client's outbound channel.
func (h *Hub) broadcast(p codec.Packet) {
	frame, err := codec.EncodeFrame(p)
	if err != nil {
		slog.Error("hub: failed to encode broadcast packet", "error", err)
		return
	}
	for _, client := range h.world.Clients {
		if client.Player == nil {
			continue
		}
		client.Outbound.In() <- command.SendBytes{Bytes: frame}
	}
}

func toUpdatePlayer(c *Client) codec.UpdatePlayer {
	p := c.Player
	return codec.UpdatePlayer{
		ConnectionID:   c.ConnectionID,
		Nickname:       p.Nickname,
		Color:          p.Color,
		X:              p.X,
		Y:              p.Y,
		DirectionAngle: p.DirectionAngle,
		Speed:          p.Speed,
		Radius:         p.Radius,
	}
}

func squaredDistance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}
