package analysis

import (
	"fmt"

	"github.com/jonathan/proposal-agent/internal/types"
)

// Score composition constants
const (
	domainAlignmentPoints = 40
	ambiguityLowPoints    = 30
	ambiguityMediumPoints = 15
	clientBaselinePoints  = 5
	budgetBonusPoints     = 15
	urgencyBonusPoints    = 10
)

// Route decision thresholds
const (
	proceedThreshold    = 70
	borderlineThreshold = 50
)

// ScoreFit computes the deterministic fit decision from the consolidated
// matrix, persona, and routing. No I/O; same inputs always yield the same
// score, route, and reasoning.
//
// The 40-point domain-alignment component is awarded unconditionally: hard
// domain enforcement happens at the eligibility gate, and the score is a soft
// signal on top of it.
func ScoreFit(matrix types.RequirementsMatrix, persona types.Persona, routing types.DomainRouting) types.FitDecision {
	_ = matrix // reserved for graded skill-overlap scoring
	_ = routing

	score := 0
	reasoning := make([]string, 0, 4)

	// 1. Domain alignment (40 pts)
	score += domainAlignmentPoints
	reasoning = append(reasoning, "Primary domain matches user expertise (assumed)")

	// 2. Feasibility / ambiguity (0-30 pts)
	ambiguityPoints := 0
	switch persona.AmbiguityLevel {
	case types.LevelLow:
		ambiguityPoints = ambiguityLowPoints
	case types.LevelMedium:
		ambiguityPoints = ambiguityMediumPoints
	}
	score += ambiguityPoints
	reasoning = append(reasoning, fmt.Sprintf("Ambiguity level is %s (+%d)", persona.AmbiguityLevel, ambiguityPoints))

	// 3. Client quality (baseline 5, max 30)
	clientPoints := clientBaselinePoints
	if persona.HasBudget {
		clientPoints += budgetBonusPoints
		reasoning = append(reasoning, fmt.Sprintf("Client has budget (+%d)", budgetBonusPoints))
	}
	if persona.Urgency == types.LevelHigh {
		clientPoints += urgencyBonusPoints
		reasoning = append(reasoning, fmt.Sprintf("High urgency (+%d)", urgencyBonusPoints))
	}
	score += clientPoints

	route := types.RouteReject
	switch {
	case score >= proceedThreshold:
		route = types.RouteProceed
	case score >= borderlineThreshold:
		route = types.RouteBorderline
	}

	return types.FitDecision{Score: score, Route: route, Reasoning: reasoning}
}
