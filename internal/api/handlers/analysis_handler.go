package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(service *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// analyzeBody is the JSON form of an analysis request.
type analyzeBody struct {
	Dataset ingest.Dataset    `json:"dataset"`
	Seed    int64             `json:"seed"`
	Params  *inventory.Params `json:"params"`
}

// Analyze accepts either a multipart workbook upload in the "file" field or a
// JSON body carrying the dataset.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var (
		req    service.AnalyzeRequest
		report *ingest.Report
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
			return
		}
		if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".xlsx" && ext != ".xlsm" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file must be an xlsx workbook"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
			return
		}
		defer f.Close()

		ds, rep, err := ingest.LoadWorkbookReader(f)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid workbook", "details": err.Error()})
			return
		}
		req.Dataset = ds
		report = &rep

		if seed := strings.TrimSpace(c.PostForm("seed")); seed != "" {
			v, err := strconv.ParseInt(seed, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
				return
			}
			req.Seed = v
		}
	} else {
		// Fields missing from a partial params object keep their defaults.
		defaults := h.service.Params()
		body := analyzeBody{Params: &defaults}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		ds, rep := body.Dataset.Clean()
		req = service.AnalyzeRequest{Dataset: ds, Seed: body.Seed, Params: body.Params}
		report = &rep
	}

	if len(req.Dataset.Sales) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "dataset has no valid sales rows", "cleaning_report": report})
		return
	}

	res, cached, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, inventory.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parameters", "details": err.Error()})
			return
		}
		log.Error().Err(err).Msg("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed", "details": err.Error()})
		return
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"result":          res,
		"cached":          cached,
		"cleaning_report": report,
	})
}

func (h *AnalysisHandler) GetResult(c *gin.Context) {
	res, err := h.service.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.lookupError(c, err, "failed to fetch result")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AnalysisHandler) ListRuns(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 20)
	offset := parseNonNegativeInt(c.Query("offset"))

	runs, err := h.service.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrPersistenceDisabled) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *AnalysisHandler) GetPolicies(c *gin.Context) {
	filter, err := parsePolicyFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policies, err := h.service.GetPolicies(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		h.lookupError(c, err, "failed to fetch policies")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": policies,
		"total": len(policies),
	})
}

func (h *AnalysisHandler) GetDashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.lookupError(c, err, "failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *AnalysisHandler) Export(c *gin.Context) {
	runID := c.Param("id")
	data, err := h.service.Workbook(c.Request.Context(), runID)
	if err != nil {
		h.lookupError(c, err, "failed to export result")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="replenishment_%s.xlsx"`, runID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

type simulateBody struct {
	RunID    string          `json:"run_id"`
	Policies []domain.Policy `json:"policies"`
	Seed     int64           `json:"seed"`
	Days     int             `json:"days"`
}

func (h *AnalysisHandler) Simulate(c *gin.Context) {
	var body simulateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if body.Days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must not be negative"})
		return
	}

	sim, err := h.service.Simulate(c.Request.Context(), service.SimulateRequest{
		RunID:    body.RunID,
		Policies: body.Policies,
		Seed:     body.Seed,
		Days:     body.Days,
	})
	switch {
	case errors.Is(err, service.ErrNoPolicies):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.lookupError(c, err, "simulation failed")
		return
	}
	c.JSON(http.StatusOK, sim)
}

func (h *AnalysisHandler) lookupError(c *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis run not found"})
		return
	}
	log.Error().Err(err).Str("run_id", c.Param("id")).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}

// parsePolicyFilter accepts repeated or comma-separated values:
//
//	?class=A&class=B
//	?class=A,B
func parsePolicyFilter(c *gin.Context) (*repository.PolicyFilter, error) {
	filter := &repository.PolicyFilter{
		StoreIDs: queryList(c, "store_id"),
		SKUIDs:   queryList(c, "sku_id"),
	}

	for _, v := range queryList(c, "class") {
		class, ok := domain.ParseABCClass(v)
		if !ok {
			return nil, fmt.Errorf("invalid class %q", v)
		}
		filter.Classes = append(filter.Classes, class)
	}
	for _, v := range queryList(c, "status") {
		filter.Statuses = append(filter.Statuses, domain.PolicyStatus(strings.ToLower(v)))
	}
	return filter, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if fallback <= 0 {
		fallback = 50
	}
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func parseNonNegativeInt(value string) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v >= 0 {
		return v
	}
	return 0
}
