package remedy

import "fmt"

// Step is one remediation attempt in a fallback chain.
type Step struct {
	Name string
	Run  func() error
}

// RunChain attempts each step in order until one succeeds, returning the
// name of the winning step. Every step is attempted at most once and
// faults are isolated per attempt: an error or a panic inside a step
// marks that step failed and the chain moves on. There is no cause
// distinction and no retry; exhausting the chain reports ("", false).
func RunChain(steps []Step) (string, bool) {
	for _, step := range steps {
		if err := runStep(step); err == nil {
			return step.Name, true
		}
	}
	return "", false
}

func runStep(step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %s panicked: %v", step.Name, r)
		}
	}()
	if step.Run == nil {
		return fmt.Errorf("step %s has no action", step.Name)
	}
	return step.Run()
}
