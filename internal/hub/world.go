package hub

import (
	"time"

	"github.com/orbitclash/server/internal/command"
	"github.com/orbitclash/server/internal/model"
	"github.com/orbitclash/server/internal/queue"
)

// Client is the hub's record of one connection. Player is nil between
// RegisterClientAgent and a successful Join.
type Client struct {
	ConnectionID string
	SocketAddr   string
	Outbound     *queue.Unbounded[command.AgentCommand]
	Player       *model.Player
}

// World is the pair of mappings the hub owns exclusively: no goroutine
// other than the hub's Run loop may read or write either map.
type World struct {
	Clients  map[string]*Client
	Spores   map[string]*model.Spore
	LastTick time.Time
}

func newWorld() *World {
	return &World{
		Clients: make(map[string]*Client),
		Spores:  make(map[string]*model.Spore),
	}
}
