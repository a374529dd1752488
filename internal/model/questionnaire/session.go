package questionnaire

import "time"

// State is the questionnaire step a session is waiting on.
type State int

const (
	AwaitStart State = iota
	AwaitMetrics
	AwaitEnvironment
	AwaitPosition
	AwaitBudget
	AwaitResult
	Terminated
)

var stateNames = [...]string{
	AwaitStart:       "AWAIT_START",
	AwaitMetrics:     "AWAIT_METRICS",
	AwaitEnvironment: "AWAIT_ENVIRONMENT",
	AwaitPosition:    "AWAIT_POSITION",
	AwaitBudget:      "AWAIT_BUDGET",
	AwaitResult:      "AWAIT_RESULT",
	Terminated:       "TERMINATED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Session captures one user's walk through the questionnaire.
type Session struct {
	UserID    string    `json:"userId"`
	State     State     `json:"state"`
	Answers   Answers   `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession starts a session in AwaitStart.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		State:     AwaitStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Terminal reports whether no further transitions are possible.
func (s *Session) Terminal() bool {
	return s.State == Terminated
}
