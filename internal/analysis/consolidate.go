package analysis

import "github.com/jonathan/proposal-agent/internal/types"

// Consolidate merges per-domain requirement matrices into one canonical
// matrix. Each of the five string sets is the union of the corresponding
// per-matrix sets with duplicates removed by value equality. Clarifying
// questions are concatenated in extractor-invocation order and deliberately
// not deduplicated: distinct extractors may ask overlapping but
// differently-phrased questions.
func Consolidate(matrices ...types.RequirementsMatrix) types.RequirementsMatrix {
	out := types.EmptyMatrix()
	for _, m := range matrices {
		out.Explicit = append(out.Explicit, m.Explicit...)
		out.Implied = append(out.Implied, m.Implied...)
		out.Constraints = append(out.Constraints, m.Constraints...)
		out.Ambiguities = append(out.Ambiguities, m.Ambiguities...)
		out.Risks = append(out.Risks, m.Risks...)
		out.ClarifyingQuestions = append(out.ClarifyingQuestions, m.ClarifyingQuestions...)
	}
	out.Explicit = dedupe(out.Explicit)
	out.Implied = dedupe(out.Implied)
	out.Constraints = dedupe(out.Constraints)
	out.Ambiguities = dedupe(out.Ambiguities)
	out.Risks = dedupe(out.Risks)
	return out
}
