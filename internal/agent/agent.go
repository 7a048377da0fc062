// Package agent implements the per-connection actor: one Agent per
// WebSocket connection, translating inbound packets to hub commands and
// outbound hub commands to wire frames. State machine: Fresh →
// Authenticated → Joined.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orbitclash/server/internal/codec"
	"github.com/orbitclash/server/internal/command"
	"github.com/orbitclash/server/internal/queue"
	"github.com/orbitclash/server/internal/store"
)

type sessionState int

const (
	stateFresh sessionState = iota
	stateAuthenticated
	stateJoined
)

const (
	sporeBatchChunkSize  = 20
	sporeBatchChunkPause = 20 * time.Millisecond
)

// cachedPlayer is the agent's local copy of the authenticated session's
// player record, refreshed on login and kept in sync with best-score
// updates from the hub.
type cachedPlayer struct {
	ID        int64
	AuthID    int64
	Nickname  string
	Color     uint32
	BestScore int64
}

// Agent owns one WebSocket connection for its entire lifetime.
type Agent struct {
	conn         *websocket.Conn
	socketAddr   string
	repo         store.Repository
	bcryptCost   int
	hubInbound   chan<- command.HubCommand
	outbound     *queue.Unbounded[command.AgentCommand]
	connectionID string
	state        sessionState
	player       *cachedPlayer

	// writeMu serializes writes onto conn: gorilla/websocket forbids
	// concurrent writers, and the background spore-batch deliverer (see
	// deliverSporeBatch) writes from its own goroutine alongside Run's
	// main loop.
	writeMu sync.Mutex
	// batchWG tracks in-flight background spore-batch deliveries so Run
	// can wait for them to finish before closing conn.
	batchWG sync.WaitGroup
}

// New accepts connection ownership and registers with the hub, blocking
// until the hub assigns a connection_id.
func New(conn *websocket.Conn, socketAddr string, repo store.Repository, bcryptCost int, hubInbound chan<- command.HubCommand) *Agent {
	a := &Agent{
		conn:       conn,
		socketAddr: socketAddr,
		repo:       repo,
		bcryptCost: bcryptCost,
		hubInbound: hubInbound,
		outbound:   queue.NewUnbounded[command.AgentCommand](),
		state:      stateFresh,
	}

	reply := make(chan string, 1)
	hubInbound <- command.RegisterClientAgent{SocketAddr: socketAddr, Outbound: a.outbound, Reply: reply}
	a.connectionID = <-reply

	return a
}

// Run sends Hello, then multiplexes inbound WS frames and outbound hub
// commands until either side closes. It always unregisters from the hub
// before returning.
func (a *Agent) Run(ctx context.Context) {
	defer func() {
		a.hubInbound <- command.UnregisterClientAgent{ConnectionID: a.connectionID}
		a.outbound.Close()
		a.batchWG.Wait()
		a.conn.Close()
	}()

	if err := a.sendPacket(codec.Hello{ConnectionID: a.connectionID}); err != nil {
		slog.Warn("agent: failed to send hello", "connection_id", a.connectionID, "error", err)
		return
	}

	frames := make(chan []byte)
	readErrs := make(chan error, 1)
	go a.readLoop(frames, readErrs)

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErrs:
			if err != nil {
				slog.Debug("agent: read loop ended", "connection_id", a.connectionID, "error", err)
			}
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if !a.handleFrame(frame) {
				return
			}
		case cmd, ok := <-a.outbound.Out():
			if !ok {
				return
			}
			if !a.handleAgentCommand(cmd) {
				return
			}
		}
	}
}

func (a *Agent) readLoop(frames chan<- []byte, errs chan<- error) {
	defer close(frames)
	for {
		msgType, data, err := a.conn.ReadMessage()
		if err != nil {
			errs <- err
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			frames <- data
		case websocket.CloseMessage:
			errs <- nil
			return
		default:
			slog.Warn("agent: ignoring non-binary frame", "connection_id", a.connectionID, "type", msgType)
		}
	}
}

// handleFrame decodes one inbound WS frame and dispatches it. It returns
// false when the agent loop should exit (the client sent Disconnect).
func (a *Agent) handleFrame(frame []byte) bool {
	pkt, err := codec.DecodeFrame(frame)
	if err != nil {
		slog.Warn("agent: decode error, dropping frame", "connection_id", a.connectionID, "error", err)
		return true
	}
	return a.handlePacket(pkt)
}

// handleAgentCommand processes one hub→agent command. It returns false
// when the agent loop should exit (DisconnectClient).
func (a *Agent) handleAgentCommand(cmd command.AgentCommand) bool {
	switch c := cmd.(type) {
	case command.SendBytes:
		if err := a.writeFrame(c.Bytes); err != nil {
			slog.Debug("agent: write error, closing", "connection_id", a.connectionID, "error", err)
			return false
		}
	case command.UpdateSporeBatch:
		a.batchWG.Add(1)
		go func() {
			defer a.batchWG.Done()
			a.deliverSporeBatch(c.Spores)
		}()
	case command.SyncPlayerBestScore:
		a.syncBestScore(c.CurrentScore)
	case command.DisconnectClient:
		a.sendPacket(codec.Disconnect{ConnectionID: a.connectionID, Reason: c.Reason})
		return false
	default:
		slog.Error("agent: unrecognized agent command", "connection_id", a.connectionID, "type", fmt.Sprintf("%T", c))
	}
	return true
}

func (a *Agent) sendPacket(p codec.Packet) error {
	frame, err := codec.EncodeFrame(p)
	if err != nil {
		return fmt.Errorf("encoding packet: %w", err)
	}
	return a.writeFrame(frame)
}

// writeFrame is the sole path onto conn's writer; every sender (the main
// loop and the background spore-batch deliverer) goes through it so
// concurrent writes never reach gorilla/websocket.
func (a *Agent) writeFrame(frame []byte) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return a.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// deliverSporeBatch chunks the cold-start snapshot into small windows with
// a pause between each, so a slow client cannot be forced to absorb the
// whole world at once. It runs on its own goroutine (see
// handleAgentCommand) so the pacing sleep never blocks Run's select loop
// from reading inbound frames or other outbound commands.
func (a *Agent) deliverSporeBatch(spores []command.SporeSnapshot) {
	for start := 0; start < len(spores); start += sporeBatchChunkSize {
		end := min(start+sporeBatchChunkSize, len(spores))
		chunk := make([]codec.UpdateSpore, 0, end-start)
		for _, s := range spores[start:end] {
			chunk = append(chunk, codec.UpdateSpore{SporeID: s.ID, X: s.X, Y: s.Y, Radius: s.Radius})
		}
		if err := a.sendPacket(codec.UpdateSporeBatch{Spores: chunk}); err != nil {
			return
		}
		if end < len(spores) {
			time.Sleep(sporeBatchChunkPause)
		}
	}
}

// syncBestScore reconciles the cached best score before ever touching the
// store: the store write is only issued when the new score exceeds the
// cached value, avoiding one round-trip per consumed spore for a score
// that is not a new best.
func (a *Agent) syncBestScore(currentScore int64) {
	if a.player == nil || currentScore <= a.player.BestScore {
		return
	}
	a.player.BestScore = currentScore

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.repo.UpdateBestScore(ctx, a.player.ID, currentScore); err != nil {
		slog.Error("agent: failed to persist best score", "connection_id", a.connectionID, "error", err)
	}
}
