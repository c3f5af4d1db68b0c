package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/channels"
	testutil "github.com/visadesk-io/visadesk/internal/database/testutil"
	"github.com/visadesk-io/visadesk/internal/models"
	"github.com/visadesk-io/visadesk/internal/sweep"
	"github.com/visadesk-io/visadesk/pkg/response"
)

type recordingChannel struct {
	sent []channels.Message
}

func (r *recordingChannel) Name() string { return "recording" }

func (r *recordingChannel) Send(_ context.Context, msg channels.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func newSweepFixture(t *testing.T, secret string) (*SweepHandler, *recordingChannel, *gorm.DB, time.Time) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

	ch := &recordingChannel{}
	engine, err := sweep.NewEngine(db, []channels.Channel{ch}, sweep.WithNow(func() time.Time { return now }))
	require.NoError(t, err)

	handler, err := NewSweepHandler(engine, db, secret)
	require.NoError(t, err)
	handler.now = func() time.Time { return now }
	return handler, ch, db, now
}

func seedExpiring(t *testing.T, db *gorm.DB, now time.Time, days int) *models.Employee {
	t.Helper()

	expiry := now.AddDate(0, 0, days)
	employee := &models.Employee{
		Name:           "Cron Target",
		Email:          "cron-target@example.com",
		VisaExpiryDate: &expiry,
		IsActive:       true,
	}
	require.NoError(t, db.Create(employee).Error)
	return employee
}

func TestRunCronRejectsBadSecret(t *testing.T) {
	handler, ch, db, now := newSweepFixture(t, "cron-secret")
	seedExpiring(t, db, now, 7)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/visa-sweep/run", nil)
	c.Request.Header.Set("Authorization", "Bearer wrong-secret")
	handler.RunCron(c)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Empty(t, ch.sent)

	// The rejected request performed no writes.
	var count int64
	require.NoError(t, db.Model(&models.VisaReminder{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestRunCronRejectsMissingHeader(t *testing.T) {
	handler, _, _, _ := newSweepFixture(t, "cron-secret")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/visa-sweep/run", nil)
	handler.RunCron(c)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRunCronRejectsWhenSecretUnset(t *testing.T) {
	handler, _, _, _ := newSweepFixture(t, "")

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/visa-sweep/run", nil)
	c.Request.Header.Set("Authorization", "Bearer ")
	handler.RunCron(c)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRunCronExecutesSweep(t *testing.T) {
	handler, ch, db, now := newSweepFixture(t, "cron-secret")
	seedExpiring(t, db, now, 7)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/visa-sweep/run", nil)
	c.Request.Header.Set("Authorization", "Bearer cron-secret")
	handler.RunCron(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, ch.sent, 1)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.True(t, payload.Success)

	data, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var body struct {
		Summary sweep.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	require.Equal(t, 1, body.Summary.Checked)
	require.Equal(t, 1, body.Summary.Dispatched)
}

func TestRunManualExecutesSweep(t *testing.T) {
	handler, ch, db, now := newSweepFixture(t, "cron-secret")
	seedExpiring(t, db, now, 1)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/visa-sweep/run", nil)
	handler.RunManual(c)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, ch.sent, 1)
}

func TestSweepStats(t *testing.T) {
	handler, _, db, now := newSweepFixture(t, "cron-secret")
	seedExpiring(t, db, now, 10)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/visa-sweep/stats", nil)
	handler.Stats(c)

	require.Equal(t, http.StatusOK, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.True(t, payload.Success)

	data, err := json.Marshal(payload.Data)
	require.NoError(t, err)
	var body struct {
		Stats sweep.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	require.Equal(t, 1, body.Stats.TotalTracked)
	require.Equal(t, 1, body.Stats.ExpiringSoon)
	require.Equal(t, 0, body.Stats.Expired)
}
