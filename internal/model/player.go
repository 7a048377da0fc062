// Package model holds the in-world entity types owned exclusively by the
// hub goroutine: Player and Spore. Both are plain value-holding structs —
// concurrency safety comes from single-writer ownership, not from locks.
package model

import (
	"math"
	"time"

	"github.com/orbitclash/server/internal/geometry"
)

// WorldBound is the half-extent of the square arena; spawn coordinates are
// drawn uniformly from [-WorldBound, WorldBound] on both axes.
const WorldBound = 3000.0

const (
	InitRadius         = 20.0
	InitDirectionAngle = 0.0
	InitSpeed          = 150.0
	RushSpeed          = 300.0
	RushDuration       = 2 * time.Second
	MinRadius          = 10.0
)

// Player is an in-world avatar owned by a logged-in and joined client.
// Mutated only by the hub's command handler and tick — never concurrently.
type Player struct {
	DBID           int64
	ConnectionID   string
	Nickname       string
	Color          uint32 // 32-bit RGBA, alpha forced opaque at registration
	X, Y           float64
	DirectionAngle float64
	Speed          float64
	Radius         float64
	// RushStart is the monotonic instant a rush began, or the zero Time if
	// no rush is active.
	RushStart time.Time
}

func randomCoord(rng Rand) float64 {
	return (rng.Float64()*2.0 - 1.0) * WorldBound
}

// RandomPlayer spawns a player at a uniform random position with init
// radius/speed, zero direction, and no active rush.
func RandomPlayer(dbID int64, connectionID, nickname string, color uint32, rng Rand) *Player {
	return &Player{
		DBID:           dbID,
		ConnectionID:   connectionID,
		Nickname:       nickname,
		Color:          color,
		X:              randomCoord(rng),
		Y:              randomCoord(rng),
		DirectionAngle: InitDirectionAngle,
		Speed:          InitSpeed,
		Radius:         InitRadius,
	}
}

// Tick advances the player's position along its current heading for delta,
// and clears an expired rush back to init speed.
func (p *Player) Tick(delta time.Duration, now time.Time) {
	deltaSecs := delta.Seconds()

	p.X += p.Speed * math.Cos(p.DirectionAngle) * deltaSecs
	p.Y += p.Speed * math.Sin(p.DirectionAngle) * deltaSecs

	if !p.RushStart.IsZero() && now.Sub(p.RushStart) > RushDuration {
		p.Speed = InitSpeed
		p.RushStart = time.Time{}
	}
}

// Rush engages the temporary speed boost, stamping the rush start at now.
func (p *Player) Rush(now time.Time) {
	p.Speed = RushSpeed
	p.RushStart = now
}

// InRush reports whether a rush is currently active.
func (p *Player) InRush() bool {
	return !p.RushStart.IsZero()
}

// Respawn re-randomizes position and resets radius/speed, preserving
// identity (DBID, ConnectionID, Nickname, Color).
func (p *Player) Respawn(rng Rand) {
	p.X = randomCoord(rng)
	p.Y = randomCoord(rng)
	p.Radius = InitRadius
	p.Speed = InitSpeed
	p.RushStart = time.Time{}
}

// IncreaseMass grows the player by the given mass.
func (p *Player) IncreaseMass(mass float64) {
	p.Radius = geometry.MassToRadius(geometry.RadiusToMass(p.Radius) + mass)
}

// TryDecreaseMass shrinks the player by mass, refusing when the player is
// already at the floor radius or the shrink would leave non-positive mass.
func (p *Player) TryDecreaseMass(mass float64) bool {
	if p.Radius <= MinRadius {
		return false
	}

	newMass := geometry.RadiusToMass(p.Radius) - mass
	if newMass <= 0 {
		return false
	}

	p.Radius = geometry.MassToRadius(newMass)
	return true
}

// TryDropMass wraps TryDecreaseMass, returning the dropped mass on success.
func (p *Player) TryDropMass(mass float64) (float64, bool) {
	if p.TryDecreaseMass(mass) {
		return mass, true
	}
	return 0, false
}
