// Package ingestion resolves submitted job inputs into the plain
// posting text the analysis pipeline works on. URL submissions are
// fetched and stripped to their main content; pasted text and
// uploaded file content are cleaned in place.
package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/fetch"
)

var (
	// ErrEmptyContent is returned when an input resolves to no usable text.
	ErrEmptyContent = errors.New("job input resolved to empty content")
	// ErrUnsupportedInputType is returned for unrecognized input types.
	ErrUnsupportedInputType = errors.New("unsupported input type")
)

// Resolver turns a job's stored input into posting text.
type Resolver struct {
	useBrowser bool
	log        *zap.Logger
}

// NewResolver creates a resolver. When useBrowser is true, URL inputs
// that yield too little text are retried with a headless browser.
func NewResolver(useBrowser bool, log *zap.Logger) *Resolver {
	return &Resolver{useBrowser: useBrowser, log: log}
}

// Resolve returns the cleaned posting text for a job input.
func (r *Resolver) Resolve(ctx context.Context, inputType, content string) (string, error) {
	var (
		text string
		err  error
	)
	switch inputType {
	case db.InputTypeURL:
		text, err = r.resolveURL(ctx, content)
		if err != nil {
			return "", err
		}
	case db.InputTypeText, db.InputTypeFile:
		text = CleanText(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInputType, inputType)
	}

	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

func (r *Resolver) resolveURL(ctx context.Context, urlStr string) (string, error) {
	result, err := fetch.URL(ctx, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch job posting: %w", err)
	}

	text, err := fetch.ExtractMainText(result.HTML, fetch.JobPostingSelectors())
	if err != nil {
		return "", fmt.Errorf("failed to extract posting text: %w", err)
	}

	if r.useBrowser && fetch.ShouldUseBrowser(text) {
		r.log.Info("posting text too short, retrying with headless browser",
			zap.String("url", urlStr), zap.Int("chars", len(text)))
		html, browserErr := fetch.BrowserSimple(ctx, urlStr)
		if browserErr != nil {
			// Keep the HTTP content; the browser is best-effort.
			r.log.Warn("browser rendering failed", zap.Error(browserErr))
		} else if rendered, extractErr := fetch.ExtractMainText(html, fetch.JobPostingSelectors()); extractErr == nil {
			text = rendered
		}
	}

	return CleanText(text), nil
}
