// Package proposal synthesizes and refines proposal text for analyzed
// jobs. Model output is never trusted to follow structural
// instructions, so the presentation invariants (greeting at the top,
// sign-off at the bottom) are enforced deterministically after
// generation.
package proposal

import (
	"regexp"
	"strings"
)

// Greeting tokens accepted at the start of a proposal and sign-off
// tokens accepted at its end, matched case-insensitively.
var (
	greetingTokens = []string{"hi", "hello", "dear"}
	signOffTokens  = []string{"best", "regards", "sincerely", "thanks", "cheers"}
)

// Defaults injected when the model omitted the structure.
const (
	defaultGreeting = "Hi,"
	defaultSignOff  = "Best regards,"
)

// signOffLine matches a line that is nothing but a sign-off phrase,
// e.g. "Best regards," or "Thanks!".
var signOffLine = regexp.MustCompile(`(?i)^\s*(best( regards)?|kind regards|warm regards|regards|sincerely( yours)?|thank(s| you)|cheers)\s*[,!.]*\s*$`)

// leadingNonLetters strips markdown markers and punctuation before the
// first word of a line.
var leadingNonLetters = regexp.MustCompile(`^[^a-zA-Z]+`)

// EnforceStructure applies the deterministic presentation invariants
// to raw model output: the text opens with a recognized greeting
// (one is prepended if missing) and closes with a recognized sign-off
// (sign-off lines the model scattered mid-document are stripped, then
// a closing is appended if the document no longer ends with one).
// Pure; same input always yields the same output.
func EnforceStructure(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return defaultGreeting + "\n\n" + defaultSignOff
	}

	lines := strings.Split(text, "\n")

	// Find the model's own closing sign-off, if any: the last
	// non-empty line. Sign-off lines anywhere else are noise.
	closing := defaultSignOff
	lastIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			lastIdx = i
			break
		}
	}
	if lastIdx >= 0 && signOffLine.MatchString(lines[lastIdx]) && hasSignOffToken(lines[lastIdx]) {
		closing = strings.TrimSpace(lines[lastIdx])
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if signOffLine.MatchString(line) && strings.TrimSpace(line) != "" {
			continue
		}
		kept = append(kept, line)
	}

	body := strings.TrimSpace(strings.Join(kept, "\n"))

	if !startsWithGreeting(body) {
		if body == "" {
			body = defaultGreeting
		} else {
			body = defaultGreeting + "\n\n" + body
		}
	}

	return body + "\n\n" + closing
}

// startsWithGreeting reports whether the first word of the text is a
// recognized greeting, ignoring markdown markers.
func startsWithGreeting(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		word := strings.ToLower(firstWord(line))
		for _, g := range greetingTokens {
			if word == g {
				return true
			}
		}
		return false
	}
	return false
}

// hasSignOffToken reports whether the line's first word is one of the
// accepted closing tokens. The stripping regex is broader than the
// accepted set, so "Kind regards" is removed mid-document but not
// reused as the closing.
func hasSignOffToken(line string) bool {
	word := strings.ToLower(firstWord(line))
	for _, s := range signOffTokens {
		if word == s {
			return true
		}
	}
	return false
}

func firstWord(line string) string {
	line = leadingNonLetters.ReplaceAllString(strings.TrimSpace(line), "")
	for i, r := range line {
		if !isLetter(r) {
			return line[:i]
		}
	}
	return line
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
