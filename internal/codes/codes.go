package codes

import (
	"context"
	"fmt"
)

// FallbackBugPrefix namespaces bugs created without a project.
const FallbackBugPrefix = "BUGS"

// ProjectPrefix namespaces generated project codes.
const ProjectPrefix = "PRJ"

// Counter counts existing entities whose code starts with "<prefix>-".
type Counter interface {
	CountByCodePrefix(ctx context.Context, prefix string) (int, error)
}

// Next derives the next sequential code under prefix: "<prefix>-<count+1>".
//
// Count-then-format is not atomic: two concurrent calls under the same prefix
// can observe the same count and produce the same code. The uniqueness
// guarantee lives in the storage layer (UNIQUE on the code column); callers
// that insert must treat a unique violation as a signal to regenerate.
func Next(ctx context.Context, c Counter, prefix string) (string, error) {
	n, err := c.CountByCodePrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("count codes for prefix %q: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%d", prefix, n+1), nil
}
