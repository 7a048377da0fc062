// Package codec implements the length-delimited binary wire packet format
// exchanged between client and server: a 4-byte big-endian length prefix
// (matching the WebSocket binary frame boundary, kept explicit so the
// codec stays transport-agnostic and unit-testable without a socket), one
// tag byte, then fields in declaration order. Strings are uint16
// length-prefixed UTF-8; doubles are IEEE-754 via math.Float64bits.
package codec

import "fmt"

type tag byte

const (
	tagHello tag = iota + 1
	tagPing
	tagLogin
	tagLoginOk
	tagLoginErr
	tagRegister
	tagRegisterOk
	tagRegisterErr
	tagJoin
	tagChat
	tagUpdatePlayer
	tagUpdatePlayerBatch
	tagUpdateSpore
	tagUpdateSporeBatch
	tagConsumeSpore
	tagConsumePlayer
	tagRush
	tagDisconnect
	tagLeaderboardRequest
	tagLeaderboardResponse
	tagUpdatePlayerDirectionAngle
)

// Packet is the closed set of wire messages exchanged over the WebSocket
// connection, in either direction.
type Packet interface {
	isPacket()
}

// Hello is the first message sent to a client after connection acceptance.
type Hello struct {
	ConnectionID string
}

func (Hello) isPacket() {}

// Ping is echoed back verbatim regardless of session state.
type Ping struct{}

func (Ping) isPacket() {}

// Login requests authentication.
type Login struct {
	Username string
	Password string
}

func (Login) isPacket() {}

// LoginOk reports a successful authentication.
type LoginOk struct {
	PlayerDBID int64
	Nickname   string
	Color      uint32
	BestScore  int64
}

func (LoginOk) isPacket() {}

// LoginErr reports a failed authentication without distinguishing cause.
type LoginErr struct {
	Reason string
}

func (LoginErr) isPacket() {}

// Register requests account creation.
type Register struct {
	Username string
	Password string
	Color    uint32
}

func (Register) isPacket() {}

// RegisterOk reports a successful account creation.
type RegisterOk struct {
	PlayerDBID int64
}

func (RegisterOk) isPacket() {}

// RegisterErr reports a failed account creation with a scoped reason.
type RegisterErr struct {
	Reason string
}

func (RegisterErr) isPacket() {}

// Join requests that the authenticated session spawn a world-joined player.
type Join struct{}

func (Join) isPacket() {}

// Chat carries a chat line, either from a client or broadcast by the hub.
type Chat struct {
	ConnectionID string
	Message      string
}

func (Chat) isPacket() {}

// UpdatePlayer is one player's point-in-time world snapshot.
type UpdatePlayer struct {
	ConnectionID   string
	Nickname       string
	Color          uint32
	X, Y           float64
	DirectionAngle float64
	Speed          float64
	Radius         float64
}

func (UpdatePlayer) isPacket() {}

// UpdatePlayerBatch is the tick-rate broadcast of every joined player.
type UpdatePlayerBatch struct {
	Players []UpdatePlayer
}

func (UpdatePlayerBatch) isPacket() {}

// UpdateSpore is one spore's current state.
type UpdateSpore struct {
	SporeID string
	X, Y    float64
	Radius  float64
}

func (UpdateSpore) isPacket() {}

// UpdateSporeBatch is a chunk of the cold-start spore snapshot.
type UpdateSporeBatch struct {
	Spores []UpdateSpore
}

func (UpdateSporeBatch) isPacket() {}

// ConsumeSpore requests (client→server) or announces (server→client, the
// eater's connection_id and the consumed spore's id) a spore consumption.
type ConsumeSpore struct {
	ConnectionID string
	SporeID      string
}

func (ConsumeSpore) isPacket() {}

// ConsumePlayer requests that the sender attempt to consume another joined
// player by connection_id.
type ConsumePlayer struct {
	VictimConnectionID string
}

func (ConsumePlayer) isPacket() {}

// Rush requests the sender's player engage its speed boost.
type Rush struct{}

func (Rush) isPacket() {}

// Disconnect is sent before the server closes the connection, or
// broadcast to announce another client's departure.
type Disconnect struct {
	ConnectionID string
	Reason       string
}

func (Disconnect) isPacket() {}

// LeaderboardRequest asks the agent for the top-N best scores.
type LeaderboardRequest struct{}

func (LeaderboardRequest) isPacket() {}

// LeaderboardEntry is one ranked row of a leaderboard response.
type LeaderboardEntry struct {
	Nickname  string
	BestScore int64
}

// LeaderboardResponse answers a LeaderboardRequest.
type LeaderboardResponse struct {
	Entries []LeaderboardEntry
}

func (LeaderboardResponse) isPacket() {}

// UpdatePlayerDirectionAngle reports the sender's new heading, in radians.
type UpdatePlayerDirectionAngle struct {
	DirectionAngle float64
}

func (UpdatePlayerDirectionAngle) isPacket() {}

// Encode renders p as a tagged payload (tag byte followed by fields in
// declaration order). It does not prepend the frame length; callers write
// that themselves (see EncodeFrame).
func Encode(w *Writer, p Packet) error {
	switch v := p.(type) {
	case Hello:
		w.WriteByte(byte(tagHello))
		w.WriteString(v.ConnectionID)
	case Ping:
		w.WriteByte(byte(tagPing))
	case Login:
		w.WriteByte(byte(tagLogin))
		w.WriteString(v.Username)
		w.WriteString(v.Password)
	case LoginOk:
		w.WriteByte(byte(tagLoginOk))
		w.WriteInt64(v.PlayerDBID)
		w.WriteString(v.Nickname)
		w.WriteUint32(v.Color)
		w.WriteInt64(v.BestScore)
	case LoginErr:
		w.WriteByte(byte(tagLoginErr))
		w.WriteString(v.Reason)
	case Register:
		w.WriteByte(byte(tagRegister))
		w.WriteString(v.Username)
		w.WriteString(v.Password)
		w.WriteUint32(v.Color)
	case RegisterOk:
		w.WriteByte(byte(tagRegisterOk))
		w.WriteInt64(v.PlayerDBID)
	case RegisterErr:
		w.WriteByte(byte(tagRegisterErr))
		w.WriteString(v.Reason)
	case Join:
		w.WriteByte(byte(tagJoin))
	case Chat:
		w.WriteByte(byte(tagChat))
		w.WriteString(v.ConnectionID)
		w.WriteString(v.Message)
	case UpdatePlayer:
		w.WriteByte(byte(tagUpdatePlayer))
		encodeUpdatePlayer(w, v)
	case UpdatePlayerBatch:
		w.WriteByte(byte(tagUpdatePlayerBatch))
		w.WriteUint32(uint32(len(v.Players)))
		for _, p := range v.Players {
			encodeUpdatePlayer(w, p)
		}
	case UpdateSpore:
		w.WriteByte(byte(tagUpdateSpore))
		encodeUpdateSpore(w, v)
	case UpdateSporeBatch:
		w.WriteByte(byte(tagUpdateSporeBatch))
		w.WriteUint32(uint32(len(v.Spores)))
		for _, s := range v.Spores {
			encodeUpdateSpore(w, s)
		}
	case ConsumeSpore:
		w.WriteByte(byte(tagConsumeSpore))
		w.WriteString(v.ConnectionID)
		w.WriteString(v.SporeID)
	case ConsumePlayer:
		w.WriteByte(byte(tagConsumePlayer))
		w.WriteString(v.VictimConnectionID)
	case Rush:
		w.WriteByte(byte(tagRush))
	case Disconnect:
		w.WriteByte(byte(tagDisconnect))
		w.WriteString(v.ConnectionID)
		w.WriteString(v.Reason)
	case LeaderboardRequest:
		w.WriteByte(byte(tagLeaderboardRequest))
	case LeaderboardResponse:
		w.WriteByte(byte(tagLeaderboardResponse))
		w.WriteUint32(uint32(len(v.Entries)))
		for _, e := range v.Entries {
			w.WriteString(e.Nickname)
			w.WriteInt64(e.BestScore)
		}
	case UpdatePlayerDirectionAngle:
		w.WriteByte(byte(tagUpdatePlayerDirectionAngle))
		w.WriteFloat64(v.DirectionAngle)
	default:
		return fmt.Errorf("codec: unknown packet type %T", p)
	}
	return nil
}

func encodeUpdatePlayer(w *Writer, v UpdatePlayer) {
	w.WriteString(v.ConnectionID)
	w.WriteString(v.Nickname)
	w.WriteUint32(v.Color)
	w.WriteFloat64(v.X)
	w.WriteFloat64(v.Y)
	w.WriteFloat64(v.DirectionAngle)
	w.WriteFloat64(v.Speed)
	w.WriteFloat64(v.Radius)
}

func encodeUpdateSpore(w *Writer, v UpdateSpore) {
	w.WriteString(v.SporeID)
	w.WriteFloat64(v.X)
	w.WriteFloat64(v.Y)
	w.WriteFloat64(v.Radius)
}

// Decode reads one tagged payload from r. It fails with a *DecodeError on
// truncated or unrecognized input; it never panics on malformed data.
func Decode(r *Reader) (Packet, error) {
	t, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag(t) {
	case tagHello:
		connID, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return Hello{ConnectionID: connID}, nil
	case tagPing:
		return Ping{}, nil
	case tagLogin:
		username, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		password, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return Login{Username: username, Password: password}, nil
	case tagLoginOk:
		dbID, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		nickname, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		color, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		best, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		return LoginOk{PlayerDBID: dbID, Nickname: nickname, Color: color, BestScore: best}, nil
	case tagLoginErr:
		reason, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return LoginErr{Reason: reason}, nil
	case tagRegister:
		username, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		password, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		color, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return Register{Username: username, Password: password, Color: color}, nil
	case tagRegisterOk:
		dbID, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		return RegisterOk{PlayerDBID: dbID}, nil
	case tagRegisterErr:
		reason, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return RegisterErr{Reason: reason}, nil
	case tagJoin:
		return Join{}, nil
	case tagChat:
		connID, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		msg, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return Chat{ConnectionID: connID, Message: msg}, nil
	case tagUpdatePlayer:
		p, err := decodeUpdatePlayer(r)
		if err != nil {
			return nil, err
		}
		return p, nil
	case tagUpdatePlayerBatch:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		players := make([]UpdatePlayer, 0, n)
		for i := uint32(0); i < n; i++ {
			p, err := decodeUpdatePlayer(r)
			if err != nil {
				return nil, err
			}
			players = append(players, p)
		}
		return UpdatePlayerBatch{Players: players}, nil
	case tagUpdateSpore:
		s, err := decodeUpdateSpore(r)
		if err != nil {
			return nil, err
		}
		return s, nil
	case tagUpdateSporeBatch:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		spores := make([]UpdateSpore, 0, n)
		for i := uint32(0); i < n; i++ {
			s, err := decodeUpdateSpore(r)
			if err != nil {
				return nil, err
			}
			spores = append(spores, s)
		}
		return UpdateSporeBatch{Spores: spores}, nil
	case tagConsumeSpore:
		connID, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		sporeID, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return ConsumeSpore{ConnectionID: connID, SporeID: sporeID}, nil
	case tagConsumePlayer:
		victim, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return ConsumePlayer{VictimConnectionID: victim}, nil
	case tagRush:
		return Rush{}, nil
	case tagDisconnect:
		connID, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		reason, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return Disconnect{ConnectionID: connID, Reason: reason}, nil
	case tagLeaderboardRequest:
		return LeaderboardRequest{}, nil
	case tagLeaderboardResponse:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		entries := make([]LeaderboardEntry, 0, n)
		for i := uint32(0); i < n; i++ {
			nickname, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			best, err := r.ReadInt64()
			if err != nil {
				return nil, err
			}
			entries = append(entries, LeaderboardEntry{Nickname: nickname, BestScore: best})
		}
		return LeaderboardResponse{Entries: entries}, nil
	case tagUpdatePlayerDirectionAngle:
		angle, err := r.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return UpdatePlayerDirectionAngle{DirectionAngle: angle}, nil
	default:
		return nil, newDecodeError("unknown packet tag %d", t)
	}
}

func decodeUpdatePlayer(r *Reader) (UpdatePlayer, error) {
	connID, err := r.ReadString()
	if err != nil {
		return UpdatePlayer{}, err
	}
	nickname, err := r.ReadString()
	if err != nil {
		return UpdatePlayer{}, err
	}
	color, err := r.ReadUint32()
	if err != nil {
		return UpdatePlayer{}, err
	}
	x, err := r.ReadFloat64()
	if err != nil {
		return UpdatePlayer{}, err
	}
	y, err := r.ReadFloat64()
	if err != nil {
		return UpdatePlayer{}, err
	}
	angle, err := r.ReadFloat64()
	if err != nil {
		return UpdatePlayer{}, err
	}
	speed, err := r.ReadFloat64()
	if err != nil {
		return UpdatePlayer{}, err
	}
	radius, err := r.ReadFloat64()
	if err != nil {
		return UpdatePlayer{}, err
	}
	return UpdatePlayer{
		ConnectionID:   connID,
		Nickname:       nickname,
		Color:          color,
		X:              x,
		Y:              y,
		DirectionAngle: angle,
		Speed:          speed,
		Radius:         radius,
	}, nil
}

func decodeUpdateSpore(r *Reader) (UpdateSpore, error) {
	id, err := r.ReadString()
	if err != nil {
		return UpdateSpore{}, err
	}
	x, err := r.ReadFloat64()
	if err != nil {
		return UpdateSpore{}, err
	}
	y, err := r.ReadFloat64()
	if err != nil {
		return UpdateSpore{}, err
	}
	radius, err := r.ReadFloat64()
	if err != nil {
		return UpdateSpore{}, err
	}
	return UpdateSpore{SporeID: id, X: x, Y: y, Radius: radius}, nil
}
