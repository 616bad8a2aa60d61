package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>posting</body></html>"))
		}))
		defer server.Close()

		result, err := URL(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Contains(t, result.HTML, "posting")
		assert.Equal(t, "text/html", result.ContentType)
	})

	t.Run("non-200 status returns error with result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		result, err := URL(context.Background(), server.URL, nil)
		require.Error(t, err)
		require.NotNil(t, result)
		assert.Equal(t, http.StatusForbidden, result.StatusCode)

		var fetchErr *Error
		assert.ErrorAs(t, err, &fetchErr)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := URL(context.Background(), "not-a-url", nil)
		assert.Error(t, err)
	})
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
		<nav>navigation links</nav>
		<script>var x = 1;</script>
		<div class="job-description">
			Senior Go developer needed.
			Must know Postgres.
		</div>
		<footer>copyright</footer>
	</body></html>`

	text, err := ExtractMainText(html, JobPostingSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Go developer needed.")
	assert.Contains(t, text, "Must know Postgres.")
	assert.NotContains(t, text, "navigation links")
	assert.NotContains(t, text, "copyright")
	assert.NotContains(t, text, "var x = 1;")
}

func TestExtractMainTextBodyFallback(t *testing.T) {
	html := `<html><body><p>plain page content</p></body></html>`

	text, err := ExtractMainText(html, []string{".does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, "plain page content", text)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("short"))
	long := make([]byte, MinContentLength)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, ShouldUseBrowser(string(long)))
}
