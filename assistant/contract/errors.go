package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed caller input (empty question,
	// missing required tool field).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a mutation whose target does not exist or is
	// owned by another caller.
	ErrNotFound = errors.New("task not found")
	// ErrModelInvoke marks a failed language-model call. It is a fault:
	// it aborts the current answer instead of becoming tool-result data.
	ErrModelInvoke = errors.New("model invoke failed")
	// ErrRetrieval marks a failed embedding or retrieval call, treated
	// the same way as ErrModelInvoke.
	ErrRetrieval = errors.New("retrieval failed")
)

// MatchError reports that a free-text task reference could not be
// resolved. Candidates carries the active task texts that were
// considered so the model can ask the user to disambiguate.
type MatchError struct {
	Reason     string
	Candidates []string
}

func (e *MatchError) Error() string {
	if len(e.Candidates) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s (active tasks: %s)", e.Reason, strings.Join(e.Candidates, "; "))
}
