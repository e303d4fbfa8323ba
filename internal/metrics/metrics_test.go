package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(PrometheusMiddleware())
	router.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	before := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "/ok", "200"))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "/ok", "200")))
}

func TestRecordRunAndRejected(t *testing.T) {
	before := testutil.ToFloat64(AnalysisRunsTotal.WithLabelValues("completed"))
	RecordRun("completed")
	assert.Equal(t, before+1, testutil.ToFloat64(AnalysisRunsTotal.WithLabelValues("completed")))

	rejected := RejectedRowsTotal.WithLabelValues("sales", "negative_quantity")
	before = testutil.ToFloat64(rejected)
	RecordRejected("sales", "negative_quantity", 3)
	RecordRejected("sales", "negative_quantity", 0)
	assert.Equal(t, before+3, testutil.ToFloat64(rejected))
}

func TestObserveStage(t *testing.T) {
	ObserveStage("demand", 20*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(StageDuration), 1)
}
