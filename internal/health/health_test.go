// SPDX-License-Identifier: MIT
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name   string
	result CheckResult
}

func (c stubChecker) Name() string                          { return c.name }
func (c stubChecker) Check(ctx context.Context) CheckResult { return c.result }

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServeHealthNoCheckers(t *testing.T) {
	m := NewManager()
	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.True(t, resp.Ready)
}

func TestServeHealthAlways200(t *testing.T) {
	m := NewManager()
	m.RegisterChecker(stubChecker{name: "store", result: CheckResult{Status: StatusUnhealthy}})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusUnhealthy, decode(t, rec).Status)
}

func TestServeReadyUnhealthy503(t *testing.T) {
	m := NewManager()
	m.RegisterChecker(stubChecker{name: "ok", result: CheckResult{Status: StatusHealthy}})
	m.RegisterChecker(stubChecker{name: "broken", result: CheckResult{Status: StatusUnhealthy, Error: "boom"}})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	resp := decode(t, rec)
	assert.False(t, resp.Ready)
	assert.Equal(t, "boom", resp.Checks["broken"].Error)
}

func TestServeReadyDegradedStaysReady(t *testing.T) {
	m := NewManager()
	m.RegisterChecker(stubChecker{name: "slow", result: CheckResult{Status: StatusDegraded}})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusDegraded, decode(t, rec).Status)
}

func TestStoreChecker(t *testing.T) {
	c := NewStoreChecker(func(ctx context.Context) error { return nil }, time.Second)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	c = NewStoreChecker(func(ctx context.Context) error {
		return context.DeadlineExceeded
	}, time.Second)
	result := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestLastPollChecker(t *testing.T) {
	var lastRun time.Time
	var lastErr string
	c := NewLastPollChecker(func() (time.Time, string) { return lastRun, lastErr }, time.Minute)

	// Never polled successfully.
	lastErr = "store down"
	result := c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "store down", result.Error)

	lastRun = time.Now()
	lastErr = ""
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	lastRun = time.Now().Add(-5 * time.Minute)
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
}
