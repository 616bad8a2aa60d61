package llm

import (
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// SafetyBlockedError indicates the provider refused the prompt or response
// for safety reasons. Pipeline stages treat it like any other failure, but
// callers that need the distinction can detect it with errors.As.
type SafetyBlockedError struct {
	Reason string
	Cause  error
}

func (e *SafetyBlockedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("content blocked by provider: %s", e.Reason)
	}
	return "content blocked by provider"
}

func (e *SafetyBlockedError) Unwrap() error {
	return e.Cause
}

// wrapGenerateError converts provider safety blocks into SafetyBlockedError
// and leaves every other failure untouched.
func wrapGenerateError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		reason := ""
		if blocked.PromptFeedback != nil {
			reason = blocked.PromptFeedback.BlockReason.String()
		}
		return &SafetyBlockedError{Reason: reason, Cause: err}
	}
	return err
}
