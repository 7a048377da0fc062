package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/orbitclash/server/internal/codec"
	"github.com/orbitclash/server/internal/command"
	"github.com/orbitclash/server/internal/store"
)

const storeTimeout = 5 * time.Second

// handlePacket dispatches one decoded client packet according to the
// session's current state, per the Fresh/Authenticated/Joined table: Ping,
// Login, Register and LeaderboardRequest are attempted in every state;
// Join is rejected only before authentication; Chat/Move/ConsumeSpore/
// ConsumePlayer/Rush require Joined; Disconnect initiates close from any
// state. It returns false when the connection should close.
func (a *Agent) handlePacket(pkt codec.Packet) bool {
	switch p := pkt.(type) {
	case codec.Ping:
		a.sendPacket(codec.Ping{})
	case codec.Login:
		a.handleLogin(p)
	case codec.Register:
		a.handleRegister(p)
	case codec.Join:
		if a.state == stateFresh {
			return true
		}
		a.handleJoin()
	case codec.LeaderboardRequest:
		a.handleLeaderboardRequest()
	case codec.Chat:
		if a.state != stateJoined {
			return true
		}
		a.hubInbound <- command.Chat{ConnectionID: a.connectionID, Message: p.Message}
	case codec.UpdatePlayerDirectionAngle:
		if a.state != stateJoined {
			return true
		}
		a.hubInbound <- command.UpdatePlayerDirectionAngle{ConnectionID: a.connectionID, DirectionAngle: p.DirectionAngle}
	case codec.ConsumeSpore:
		if a.state != stateJoined {
			return true
		}
		a.hubInbound <- command.ConsumeSpore{ConnectionID: a.connectionID, SporeID: p.SporeID}
	case codec.ConsumePlayer:
		if a.state != stateJoined {
			return true
		}
		a.hubInbound <- command.ConsumePlayer{ConnectionID: a.connectionID, VictimConnectionID: p.VictimConnectionID}
	case codec.Rush:
		if a.state != stateJoined {
			return true
		}
		a.hubInbound <- command.Rush{ConnectionID: a.connectionID}
	case codec.Disconnect:
		return false
	default:
		slog.Warn("agent: unexpected packet for current state", "connection_id", a.connectionID, "state", a.state)
	}
	return true
}

func (a *Agent) handleLogin(p codec.Login) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	auth, err := a.repo.GetAuthByUsername(ctx, p.Username)
	if err != nil {
		a.sendPacket(codec.LoginErr{Reason: "invalid credentials"})
		return
	}
	if !store.VerifyPassword(auth.PasswordHash, p.Password) {
		a.sendPacket(codec.LoginErr{Reason: "invalid credentials"})
		return
	}

	player, err := a.repo.GetPlayerByAuthID(ctx, auth.ID)
	if err != nil {
		slog.Error("agent: auth row has no player row", "connection_id", a.connectionID, "auth_id", auth.ID, "error", err)
		a.sendPacket(codec.LoginErr{Reason: "invalid credentials"})
		return
	}

	a.player = &cachedPlayer{ID: player.ID, AuthID: auth.ID, Nickname: player.Nickname, Color: player.Color, BestScore: player.BestScore}
	if a.state == stateFresh {
		a.state = stateAuthenticated
	}

	a.sendPacket(codec.LoginOk{PlayerDBID: player.ID, Nickname: player.Nickname, Color: player.Color, BestScore: player.BestScore})
}

func (a *Agent) handleRegister(p codec.Register) {
	// color's alpha byte must be opaque before it ever reaches storage;
	// the store itself assumes it has already been forced.
	color := p.Color | 0x000000FF

	hash, err := store.HashPassword(p.Password, a.bcryptCost)
	if err != nil {
		slog.Error("agent: failed to hash password", "connection_id", a.connectionID, "error", err)
		a.sendPacket(codec.RegisterErr{Reason: "registration failed"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	player, err := a.repo.Register(ctx, p.Username, hash, color)
	if err != nil {
		a.sendPacket(codec.RegisterErr{Reason: "username already taken"})
		return
	}

	a.sendPacket(codec.RegisterOk{PlayerDBID: player.ID})
}

func (a *Agent) handleJoin() {
	if a.player == nil {
		return
	}
	a.state = stateJoined
	a.hubInbound <- command.Join{
		ConnectionID: a.connectionID,
		PlayerDBID:   a.player.ID,
		Nickname:     a.player.Nickname,
		Color:        a.player.Color,
	}
}

func (a *Agent) handleLeaderboardRequest() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	const leaderboardSize = 10
	top, err := a.repo.TopNByBestScore(ctx, leaderboardSize)
	if err != nil {
		slog.Error("agent: failed to load leaderboard", "connection_id", a.connectionID, "error", err)
		return
	}

	entries := make([]codec.LeaderboardEntry, 0, len(top))
	for _, p := range top {
		entries = append(entries, codec.LeaderboardEntry{Nickname: p.Nickname, BestScore: p.BestScore})
	}
	a.sendPacket(codec.LeaderboardResponse{Entries: entries})
}
