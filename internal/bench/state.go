package bench

// State tracks where a run is in its lifecycle. Aborted is terminal and
// only reachable from Loading or Running on a fatal error; per-iteration
// failures never abort the run.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateRunning
	StateAggregating
	StateDetecting
	StateReporting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateAggregating:
		return "aggregating"
	case StateDetecting:
		return "detecting"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}
