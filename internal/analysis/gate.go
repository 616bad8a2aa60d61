package analysis

import "fmt"

// GateDecision is the eligibility gate's verdict for a routed job.
type GateDecision struct {
	Allowed bool
	// Reason is the user-visible explanation on rejection, naming both the
	// routed domain and the user's configured domain.
	Reason string
}

// CheckEligibility compares the routed primary domain against the submitting
// user's configured domain. A user with no configured domain, or holding the
// administrative override, passes unconditionally. Otherwise the primary
// domain must equal the user's domain exactly; secondary-domain matches do
// not count.
func CheckEligibility(primaryDomain, userDomain string, adminOverride bool) GateDecision {
	if userDomain == "" || adminOverride {
		return GateDecision{Allowed: true}
	}
	if primaryDomain == userDomain {
		return GateDecision{Allowed: true}
	}
	return GateDecision{
		Allowed: false,
		Reason: fmt.Sprintf("domain mismatch: job routed to %s but your profile domain is %s",
			primaryDomain, userDomain),
	}
}
