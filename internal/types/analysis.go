// Package types defines the shared domain model for job analysis:
// client personas, domain routing, requirement matrices, and fit decisions.
package types

// Technical level values for a client persona
const (
	TechnicalLevelTechnical    = "TECHNICAL"
	TechnicalLevelNonTechnical = "NON_TECHNICAL"
	TechnicalLevelMixed        = "MIXED"
)

// Tone values for a client persona
const (
	ToneCasual       = "CASUAL"
	ToneProfessional = "PROFESSIONAL"
	ToneUrgent       = "URGENT"
	ToneStrict       = "STRICT"
)

// Level values shared by urgency and ambiguity
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// Persona captures the inferred behavioral traits of the hiring client.
// Produced once per job by the persona analyzer and immutable afterwards.
type Persona struct {
	TechnicalLevel string `json:"technicalLevel"`
	Tone           string `json:"tone"`
	Urgency        string `json:"urgency"`
	HasBudget      bool   `json:"hasBudget"`
	AmbiguityLevel string `json:"ambiguityLevel"`
}

// FallbackPersona returns the documented default persona used when the
// backing LLM call fails or returns unparseable output.
func FallbackPersona() Persona {
	return Persona{
		TechnicalLevel: TechnicalLevelMixed,
		Tone:           ToneProfessional,
		Urgency:        LevelMedium,
		HasBudget:      false,
		AmbiguityLevel: LevelMedium,
	}
}

// Valid reports whether every enum field holds an in-set value.
func (p Persona) Valid() bool {
	switch p.TechnicalLevel {
	case TechnicalLevelTechnical, TechnicalLevelNonTechnical, TechnicalLevelMixed:
	default:
		return false
	}
	switch p.Tone {
	case ToneCasual, ToneProfessional, ToneUrgent, ToneStrict:
	default:
		return false
	}
	if !validLevel(p.Urgency) || !validLevel(p.AmbiguityLevel) {
		return false
	}
	return true
}

func validLevel(level string) bool {
	return level == LevelLow || level == LevelMedium || level == LevelHigh
}

// The closed set of capability domains used for routing and gating.
const (
	DomainFullstack = "Fullstack"
	DomainGenAI     = "GenAI"
	DomainAIML      = "AI_ML"
	DomainDevOps    = "DevOps"
)

// DefaultDomain is the router's fallback primary domain.
const DefaultDomain = DomainFullstack

// Domains returns the closed domain set in canonical order.
func Domains() []string {
	return []string{DomainFullstack, DomainGenAI, DomainAIML, DomainDevOps}
}

// ValidDomain reports whether d is a member of the closed domain set.
func ValidDomain(d string) bool {
	switch d {
	case DomainFullstack, DomainGenAI, DomainAIML, DomainDevOps:
		return true
	}
	return false
}

// DomainRouting is the router's assignment of a job to capability domains.
// SecondaryDomains is ordered by the model's own confidence ranking and
// never contains the primary domain.
type DomainRouting struct {
	PrimaryDomain    string   `json:"primaryDomain"`
	SecondaryDomains []string `json:"secondaryDomains"`
	Confidence       float64  `json:"confidence"`
}

// FallbackRouting returns the documented default routing: the default domain
// with a deliberately mediocre 0.5 confidence, signaling "routed but
// unreliable" to downstream consumers.
func FallbackRouting() DomainRouting {
	return DomainRouting{
		PrimaryDomain:    DefaultDomain,
		SecondaryDomains: []string{},
		Confidence:       0.5,
	}
}

// Valid reports whether the routing satisfies its invariants: in-set primary,
// in-set secondaries excluding the primary, and confidence within [0,1].
func (r DomainRouting) Valid() bool {
	if !ValidDomain(r.PrimaryDomain) {
		return false
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return false
	}
	for _, d := range r.SecondaryDomains {
		if !ValidDomain(d) || d == r.PrimaryDomain {
			return false
		}
	}
	return true
}

// Clarifying question types
const (
	QuestionMustAsk   = "MUST_ASK"
	QuestionGoodToAsk = "GOOD_TO_ASK"
)

// ClarifyingQuestion is a question an extractor suggests asking the client.
type ClarifyingQuestion struct {
	Question string `json:"question"`
	Type     string `json:"type"`
}

// RequirementsMatrix is the structured extraction of a job description from
// one domain's perspective. The five string slices carry set semantics: no
// duplicate values, insertion order not significant.
type RequirementsMatrix struct {
	Explicit            []string             `json:"explicit"`
	Implied             []string             `json:"implied"`
	Constraints         []string             `json:"constraints"`
	Ambiguities         []string             `json:"ambiguities"`
	Risks               []string             `json:"risks"`
	ClarifyingQuestions []ClarifyingQuestion `json:"clarifyingQuestions"`
}

// EmptyMatrix returns the documented extractor fallback: all five sets empty
// and no clarifying questions. A neutral, non-blocking failure value.
func EmptyMatrix() RequirementsMatrix {
	return RequirementsMatrix{
		Explicit:            []string{},
		Implied:             []string{},
		Constraints:         []string{},
		Ambiguities:         []string{},
		Risks:               []string{},
		ClarifyingQuestions: []ClarifyingQuestion{},
	}
}

// Route decision values for a fit decision
const (
	RouteProceed    = "PROCEED"
	RouteBorderline = "BORDERLINE"
	RouteReject     = "REJECT"
)

// FitDecision is the deterministic score and route classification computed
// from a consolidated matrix, persona, and routing. Reasoning is persisted
// verbatim for auditability; it is not re-derivable from the score alone.
type FitDecision struct {
	Score     int      `json:"score"`
	Route     string   `json:"route"`
	Reasoning []string `json:"reasoning"`
}
