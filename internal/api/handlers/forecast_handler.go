package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentetemporada/backend-go/internal/export"
	"github.com/agentetemporada/backend-go/internal/ingest"
	"github.com/agentetemporada/backend-go/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(svc *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: svc}
}

// Run executes a full recomputation over the posted tables and returns the
// recommendation rows as JSON.
func (h *ForecastHandler) Run(c *gin.Context) {
	var req service.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		var schemaErr *ingest.SchemaError
		if errors.As(err, &schemaErr) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "forecast failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export runs the computation and streams the table as a download,
// ?format=csv or ?format=xlsx (default).
func (h *ForecastHandler) Export(c *gin.Context) {
	var req service.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast failed", "details": err.Error()})
		return
	}

	opts := export.Options{
		IncludeSupplier: c.DefaultQuery("include_supplier", "false") == "true",
		IncludeEAN:      true,
	}
	name := "compra_del_dia_" + time.Now().Format("20060102")

	var buf bytes.Buffer
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		if err := export.WriteCSV(&buf, result.Rows, opts); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed", "details": err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "xlsx":
		if err := export.WriteXLSX(&buf, result.Rows, opts); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed", "details": err.Error()})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", name))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format, use csv or xlsx"})
	}
}

// Policies lists the configurable strategy choices per pipeline stage so the
// UI can populate its selectors.
func (h *ForecastHandler) Policies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statistics":        []string{"max", "p90"},
		"tiebreaks":         []string{"half-up", "half-even"},
		"blend_policies":    []string{"linear-alpha", "dominance-ceiling", "additive-uplift"},
		"historical_inputs": []string{"seasonal", "projection", "prior-window"},
		"sort_orders":       []string{"name", "quantity"},
	})
}
