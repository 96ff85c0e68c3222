package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasetu/vidyasetu/core"
)

func TestRegistry(t *testing.T) {
	r := New()

	r.PaymentCollected("c1", decimal.NewFromInt(50))
	r.PaymentCollected("c1", decimal.NewFromFloat(100.5))
	r.LoginAttempt(core.RoleTeacher, true)
	r.LoginAttempt("", false)
	r.Notification("email", "dropped")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.paymentsTotal.WithLabelValues("c1")))
	assert.Equal(t, 150.5, testutil.ToFloat64(r.paymentsAmount.WithLabelValues("c1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loginAttempts.WithLabelValues("TEACHER", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loginAttempts.WithLabelValues("unknown", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications.WithLabelValues("email", "dropped")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fee_payments_total{coaching_id="c1"} 2`)
	assert.Contains(t, string(body), "go_goroutines")
}
