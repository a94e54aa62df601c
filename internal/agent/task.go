package agent

import (
	"time"

	"github.com/pkg/errors"
)

// ExpectedOutput is the completion criterion given to every task.
const ExpectedOutput = "Task successfully completed."

// Task is one natural-language instruction bound to an agent.
type Task struct {
	Description    string
	Agent          *Agent
	ExpectedOutput string
}

func NewTask(a *Agent, description string) Task {
	return Task{
		Description:    description,
		Agent:          a,
		ExpectedOutput: ExpectedOutput,
	}
}

// State is the lifecycle position of an Execution.
type State string

const (
	StateCreated   State = "CREATED"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

var transitions = map[State][]State{
	StateCreated: {StateRunning},
	StateRunning: {StateCompleted, StateFailed},
}

// Execution tracks one run of a Task. A finished execution is never resumed.
type Execution struct {
	ID         string
	Task       Task
	State      State
	Result     string
	Err        error
	Iterations int
	ToolCalls  int
	StartedAt  time.Time
	FinishedAt time.Time
}

func (e *Execution) transition(to State) error {
	for _, allowed := range transitions[e.State] {
		if allowed == to {
			e.State = to
			return nil
		}
	}
	return errors.Errorf("invalid transition %s -> %s", e.State, to)
}

// Done reports whether the execution reached a terminal state.
func (e *Execution) Done() bool {
	return e.State == StateCompleted || e.State == StateFailed
}
