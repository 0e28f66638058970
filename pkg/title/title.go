// Package title derives unique document titles.
package title

import (
	"errors"
	"fmt"
	"strings"
)

// MaxProbes bounds how many numbered suffixes Disambiguate tries.
const MaxProbes = 5000

var ErrProbeExhausted = errors.New("could not generate unique title")

// Disambiguate strips spaces from desired and, when exists reports the
// result as taken, appends "-1", "-2", ... until a free title is found.
func Disambiguate(exists func(string) (bool, error), desired string) (string, error) {
	base := strings.ReplaceAll(desired, " ", "")
	taken, err := exists(base)
	if err != nil {
		return "", fmt.Errorf("check title %q: %w", base, err)
	}
	if !taken {
		return base, nil
	}
	for i := 1; i <= MaxProbes; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("check title %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrProbeExhausted, base)
}
