package model

// sequenceRand is a deterministic Rand that replays a fixed sequence of
// values, cycling once exhausted. Used to make spawn-position and
// respawn tests reproducible.
type sequenceRand struct {
	values []float64
	i      int
}

func (s *sequenceRand) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}
