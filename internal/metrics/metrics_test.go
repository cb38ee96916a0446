package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(RecipeWritesTotal.WithLabelValues("create", "success"))
	RecipeWritesTotal.WithLabelValues("create", "success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RecipeWritesTotal.WithLabelValues("create", "success")))
}

func TestHandlerServesFamilies(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/api/tags/", "200").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "foodgram_http_requests_total"))
}
