package engine

// StatusHandler is called when the engine status changes
type StatusHandler func(status Status)

// Status represents the current capture state
type Status int

const (
	StatusIdle Status = iota
	StatusWatching
	StatusPaused
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusWatching:
		return "Watching"
	case StatusPaused:
		return "Paused"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}
