package imp

import (
	"errors"
	"fmt"

	"github.com/agnivade/levenshtein"
)

// ErrLockNotHeld is returned by ImportLock.Release when the calling
// goroutine does not hold the lock.
var ErrLockNotHeld = errors.New("global import lock not held")

// ErrNotFrozen matches every *ImportError through errors.Is.
var ErrNotFrozen = errors.New("no such frozen object")

// ImportError reports a lookup for a module the frozen store does not hold.
type ImportError struct {
	Name       string
	Suggestion string
}

func (e *ImportError) Error() string {
	msg := fmt.Sprintf("No such frozen object named %s", e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %s?)", e.Suggestion)
	}
	return msg
}

func (e *ImportError) Is(target error) bool {
	return target == ErrNotFrozen
}

// maxSuggestionDistance bounds how far a suggested name may be from the
// requested one.
const maxSuggestionDistance = 2

// closestName returns the candidate nearest to name, or "" if none is
// within maxSuggestionDistance. Ties go to the earlier candidate.
func closestName(name string, candidates []string) string {
	best, bestDist := "", maxSuggestionDistance+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
