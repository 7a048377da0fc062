// Package command defines the two message unions exchanged between client
// agents and the hub: HubCommand flows agent→hub on the hub's single
// inbound channel, AgentCommand flows hub→agent on each client's outbound
// channel. Each is a closed set of concrete structs implementing a marker
// method, dispatched by the receiver via a type switch.
package command

import "github.com/orbitclash/server/internal/queue"

// HubCommand is any message a client agent sends to the hub.
type HubCommand interface {
	isHubCommand()
}

// AgentCommand is any message the hub sends to a client agent.
type AgentCommand interface {
	isAgentCommand()
}

// RegisterClientAgent asks the hub to allocate a connection_id for a newly
// accepted connection. Outbound is the agent's own unbounded queue, stored
// on the hub's Client record so later commands reach it. The hub replies
// on Reply with the assigned id.
type RegisterClientAgent struct {
	SocketAddr string
	Outbound   *queue.Unbounded[AgentCommand]
	Reply      chan<- string
}

func (RegisterClientAgent) isHubCommand() {}

// UnregisterClientAgent tells the hub a connection is gone.
type UnregisterClientAgent struct {
	ConnectionID string
}

func (UnregisterClientAgent) isHubCommand() {}

// Join asks the hub to spawn a player for an authenticated connection.
type Join struct {
	ConnectionID string
	PlayerDBID   int64
	Nickname     string
	Color        uint32
}

func (Join) isHubCommand() {}

// Chat asks the hub to broadcast a chat message from this connection.
type Chat struct {
	ConnectionID string
	Message      string
}

func (Chat) isHubCommand() {}

// UpdatePlayerDirectionAngle reports a joined player's new heading.
type UpdatePlayerDirectionAngle struct {
	ConnectionID   string
	DirectionAngle float64
}

func (UpdatePlayerDirectionAngle) isHubCommand() {}

// ConsumeSpore asks the hub to attempt consuming a spore for this player.
type ConsumeSpore struct {
	ConnectionID string
	SporeID      string
}

func (ConsumeSpore) isHubCommand() {}

// ConsumePlayer asks the hub to attempt consuming another joined player.
type ConsumePlayer struct {
	ConnectionID       string
	VictimConnectionID string
}

func (ConsumePlayer) isHubCommand() {}

// Rush asks the hub to attempt engaging a player's rush.
type Rush struct {
	ConnectionID string
}

func (Rush) isHubCommand() {}

// SendBytes asks an agent to write an already-encoded frame.
type SendBytes struct {
	Bytes []byte
}

func (SendBytes) isAgentCommand() {}

// UpdateSporeBatch asks an agent to deliver a throttled snapshot of spores,
// nearest-first, in small chunks.
type UpdateSporeBatch struct {
	Spores []SporeSnapshot
}

func (UpdateSporeBatch) isAgentCommand() {}

// SporeSnapshot is the hub's point-in-time view of a spore, decoupled from
// the model package so the command union carries no mutable aliasing.
type SporeSnapshot struct {
	ID     string
	X, Y   float64
	Radius float64
}

// SyncPlayerBestScore asks an agent to reconcile its cached best score.
type SyncPlayerBestScore struct {
	CurrentScore int64
}

func (SyncPlayerBestScore) isAgentCommand() {}

// DisconnectClient asks an agent to close its connection and exit.
type DisconnectClient struct {
	Reason string
}

func (DisconnectClient) isAgentCommand() {}
