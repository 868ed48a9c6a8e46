package job

// State is the lifecycle position of the controller's current job
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for states a job can never leave
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Status labels shown next to the progress bar
const (
	StatusReady      = "Ready"
	StatusLoading    = "Loading video..."
	StatusChanging   = "Changing FPS..."
	StatusProcessing = "Processing video..."
	StatusFinalizing = "Finalizing..."
	StatusComplete   = "Processing complete!"
	StatusFailed     = "Processing failed"
	StatusCancelled  = "Processing cancelled"
)

// Event is a snapshot of the controller after one state change.
// Seq is strictly increasing across the controller's lifetime.
type Event struct {
	Seq        uint64
	JobID      string
	State      State
	Progress   float64 // 0..100
	Status     string
	OutputPath string
	Err        error // set only when State is StateFailed
}

// Snapshot is the controller state as seen by a reader
type Snapshot struct {
	JobID      string
	State      State
	Progress   float64
	Status     string
	OutputPath string
	Err        error
}
