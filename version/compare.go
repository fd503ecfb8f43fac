package version

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Compare orders two semantic versions, ignoring a "v" prefix and any pre-release suffix.
// It returns 1 if a > b, -1 if a < b and 0 if they are equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	return slices.CompareFunc(av, bv, cmp.Compare[int]), nil
}

func parse(s string) ([]int, error) {
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}

	v := make([]int, 3)
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &v[0], &v[1], &v[2]); err != nil {
		return nil, fmt.Errorf("version %q: %w", s, err)
	}
	return v, nil
}
