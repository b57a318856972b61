// Package session drives one catalog import wizard: stage order, gating,
// optional stages, back-navigation, and the final activation handoff. A
// session is owned by a single actor; nothing else reads or mutates it.
package session

import "fmt"

// Stage is the wizard position. Forward order is fixed; Back moves one
// stage and never destroys the prior stage's data.
type Stage int

const (
	StageUpload Stage = iota
	StageFieldMapping
	StageFrameworkMapping
	StageEnhancement
	StageActivation
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageUpload:
		return "Upload"
	case StageFieldMapping:
		return "FieldMapping"
	case StageFrameworkMapping:
		return "FrameworkMapping"
	case StageEnhancement:
		return "Enhancement"
	case StageActivation:
		return "Activation"
	case StageComplete:
		return "Complete"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Skippable reports whether the stage may be skipped outright. This is a
// positional predicate only: skipping field mapping does not prove the
// fields are actually mapped correctly, it trusts a well-formed file.
func (s Stage) Skippable() bool {
	return s == StageFieldMapping
}

// ValidationError is a stage-gate failure. It blocks only the attempted
// transition; the rest of the session state is untouched.
type ValidationError struct {
	Stage Stage
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Stage, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}
