package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Noel-Teens/pms-server/internal/models"
	"github.com/Noel-Teens/pms-server/internal/service"
	"github.com/Noel-Teens/pms-server/pkg/response"
)

type reportService interface {
	Summary(ctx context.Context) (*models.ReportSummary, error)
	ExportCSV(ctx context.Context) (*service.ReportExport, error)
	ExportPDF(ctx context.Context) (*service.ReportExport, error)
	ResearcherStats(ctx context.Context, actor *models.JWTClaims) (*models.ResearcherStats, error)
	AdminStats(ctx context.Context, actor *models.JWTClaims) (*models.AdminStats, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Summary godoc
// @Summary Paperwork summary
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportCSV godoc
// @Summary Export paperwork as CSV
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} file
// @Router /reports/export.csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	h.export(c, h.service.ExportCSV)
}

// ExportPDF godoc
// @Summary Export paperwork as PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} file
// @Router /reports/export.pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	h.export(c, h.service.ExportPDF)
}

func (h *ReportHandler) export(c *gin.Context, render func(context.Context) (*service.ReportExport, error)) {
	out, err := render(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, out.Data)
}

// ResearcherStats godoc
// @Summary Statistics of the caller's paperwork
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/researcher [get]
func (h *ReportHandler) ResearcherStats(c *gin.Context) {
	stats, err := h.service.ResearcherStats(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// AdminStats godoc
// @Summary Statistics across all paperwork
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/admin [get]
func (h *ReportHandler) AdminStats(c *gin.Context) {
	stats, err := h.service.AdminStats(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
