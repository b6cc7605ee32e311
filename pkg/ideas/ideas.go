// Package ideas implements the idea-generation collaborator: given a
// concept and its ancestor chain, produce a handful of short related
// sub-concepts.
//
// The package offers two generators:
//
//   - [Client]: talks to an OpenAI-compatible chat completions endpoint,
//     with response caching (pkg/cache) and retry with backoff
//     (pkg/httputil). This is the production path.
//   - [Static]: deterministic, offline. Used by tests, demos, and the
//     explore TUI's offline mode.
//
// Both satisfy the mindmap.Generator contract: order-preserved ideas,
// empty result for a concept with no sub-ideas (valid, not an error), and
// an error only when the service itself failed and a retry could succeed.
package ideas

import (
	"context"
	"fmt"
	"strings"
)

// MaxIdeas caps how many sub-concepts a single expansion yields. The
// service is asked for 3-5; anything past MaxIdeas in a response is
// dropped rather than rejected.
const MaxIdeas = 5

// Static is a deterministic offline generator. The same concept always
// yields the same ideas, which keeps layout output reproducible in tests
// and demos.
type Static struct{}

// facets are the angles Static riffs on. Between 3 and 5 are used per
// concept, chosen by a stable function of the concept text.
var facets = [...]string{
	"History of",
	"Future of",
	"Benefits of",
	"Risks of",
	"Examples of",
}

// GenerateIdeas returns 3-5 facet phrases for the concept. It never fails
// and ignores the context path.
func (Static) GenerateIdeas(_ context.Context, concept string, _ []string) ([]string, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return nil, nil
	}
	n := 3 + len(concept)%3
	out := make([]string, 0, n)
	for _, f := range facets[:n] {
		out = append(out, fmt.Sprintf("%s %s", f, concept))
	}
	return out, nil
}
