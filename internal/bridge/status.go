package bridge

// State is the lifecycle state of a page's recording bridge.
type State int

const (
	// StateIdle means the loader has not been invoked on this page.
	StateIdle State = iota

	// StateLoading means the recorder library fetch is in flight.
	StateLoading

	// StateReady means the library loaded and recording can start.
	StateReady

	// StateRecording means an active stop-handle is held.
	StateRecording

	// StateStopped means recording ran and was stopped on this page.
	StateStopped

	// StateLoadFailed means the library failed to load. Terminal for
	// the page's lifetime; a new page load is required to retry.
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StateLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Status is the result vocabulary of the start operation. StatusProbe
// reports the same vocabulary without side effects.
type Status string

const (
	StatusStarted          Status = "started"
	StatusAlreadyRecording Status = "already_recording"
	StatusNotLoaded        Status = "not_loaded"
	StatusLoadFailed       Status = "load_failed"
)

// StartResult is the JSON-serializable result of start and status-probe.
type StartResult struct {
	Status Status `json:"status"`
}

// ReadyResult is the JSON-serializable result of await-ready.
type ReadyResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Error values carried by ReadyResult when Success is false.
const (
	// ErrorLoadFailed: the recorder library failed to fetch or execute.
	// The host should not retry on this page.
	ErrorLoadFailed = "load_failed"

	// ErrorNotInjected: the bridge script never ran in this page. The
	// host can ask again after triggering injection.
	ErrorNotInjected = "not_injected"
)
