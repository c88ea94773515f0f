package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the registered source name closest to name, for "did you
// mean" hints. It reports false when nothing is within a third of the
// longer name's length.
func (c *Catalog) Suggest(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	want := strings.ToLower(name)
	best, bestScore := "", 1.0
	for candidate := range c.sources {
		dist := levenshtein.ComputeDistance(want, strings.ToLower(candidate))
		maxlen := max(len(want), len(candidate))
		if maxlen == 0 {
			continue
		}
		score := float64(dist) / float64(maxlen)
		if score < bestScore || (score == bestScore && candidate < best) {
			best, bestScore = candidate, score
		}
	}
	if best == "" || bestScore > 1.0/3 {
		return "", false
	}
	return best, true
}
