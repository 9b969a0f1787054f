package models

import "fmt"

// StepResult records the outcome of one best-effort configuration step that
// runs after a resource already exists (tagging, encryption, access policy).
// Failures degrade to warnings; the primary creation is never rolled back.
type StepResult struct {
	Step    string
	Err     error
	Message string
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool {
	return r.Err == nil
}

func (r StepResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("WARNING: %s failed: %v", r.Step, r.Err)
	}
	if r.Message != "" {
		return fmt.Sprintf("%s: %s", r.Step, r.Message)
	}
	return r.Step + ": ok"
}

// Warnings filters the failed steps out of a collected list.
func Warnings(steps []StepResult) []StepResult {
	var out []StepResult
	for _, s := range steps {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}
