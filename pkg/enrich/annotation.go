package enrich

import (
	"fmt"
	"strings"
)

// ScoreClausePrefix marks the clause this job owns inside the annotation
// column. At most one such clause survives a run.
const ScoreClausePrefix = "reranker score "

// RewriteAnnotation rewrites a |-delimited annotation value: clauses are
// trimmed, empty clauses and any previous score clause are dropped, and the
// new score clause is appended. Re-running enrichment therefore replaces the
// score instead of duplicating it.
func RewriteAnnotation(existing string, score float64) string {
	var kept []string
	for _, clause := range strings.Split(existing, "|") {
		clause = strings.TrimSpace(clause)
		if clause == "" || strings.HasPrefix(clause, ScoreClausePrefix) {
			continue
		}
		kept = append(kept, clause)
	}
	kept = append(kept, fmt.Sprintf("%s%.3f", ScoreClausePrefix, score))
	return strings.Join(kept, "|")
}
