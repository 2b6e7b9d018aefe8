package sim

import "time"

// StallState is the anti-stall state of a player
type StallState int

const (
	Normal StallState = iota
	StallWarning
	Eliminated // terminal
)

func (s StallState) String() string {
	switch s {
	case Normal:
		return "normal"
	case StallWarning:
		return "stall_warning"
	case Eliminated:
		return "eliminated"
	}
	return "unknown"
}

// stallMachine tracks one player's sudden-death countdown
type stallMachine struct {
	state StallState
	timer time.Duration
}

// observe advances the machine by one tick. present is true when the player
// owns a building or has construction underway. It returns true on a state change.
func (m *stallMachine) observe(present bool, dt, grace time.Duration) bool {
	prev := m.state
	switch m.state {
	case Eliminated:
		return false
	case Normal:
		if present {
			return false
		}
		m.state = StallWarning
		m.timer = 0
	case StallWarning:
		if present {
			m.state = Normal
			m.timer = 0
			return true
		}
	}

	m.timer += dt
	if m.timer >= grace {
		m.state = Eliminated
	}
	return m.state != prev
}
