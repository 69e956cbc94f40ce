package request

type Status string

const (
	StatusUnset    Status = ""
	StatusLoading  Status = "loading"
	StatusFinished Status = "finished"
	StatusCanceled Status = "canceled"
	StatusFailed   Status = "failed"
)

func (s Status) String() string {
	if s == StatusUnset {
		return "unset"
	}
	return string(s)
}

// State is the fetch state triple owned by a Fetcher.
type State struct {
	Status Status
	Data   any
	Err    error
}

func (s State) Loading() bool { return s.Status == StatusLoading }

// outcome is the metrics label for a terminal state.
func (s State) outcome() string {
	if s.Status == StatusFailed && IsUnauthorized(s.Err) {
		return "unauthorized"
	}
	return s.Status.String()
}
