package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/api/middleware"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/index"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReportHandler struct {
	reports *services.ReportService
	index   *index.Index
	logger  *zap.Logger
}

func NewReportHandler(reports *services.ReportService, ix *index.Index, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		index:   ix,
		logger:  logger.With(zap.String("handler", "reports")),
	}
}

type reportResponse struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	TransactionID string        `json:"transactionId"`
	ContentDigest string        `json:"contentDigest"`
	VersionsCount int           `json:"versionsCount"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
	Text          string        `json:"text,omitempty"`
	Author        *userResponse `json:"author,omitempty"`
}

func toReportResponse(report *models.Report, text string) reportResponse {
	resp := reportResponse{
		ID:            report.ID,
		Type:          string(report.Type),
		TransactionID: report.TransactionID,
		ContentDigest: report.ContentDigest,
		VersionsCount: report.VersionsCount,
		CreatedAt:     report.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     report.UpdatedAt.UTC().Format(time.RFC3339),
		Text:          text,
	}
	if report.Author != nil {
		author := toUserResponse(report.Author, false)
		resp.Author = &author
	}
	return resp
}

type createReportRequest struct {
	Text string `json:"text" binding:"required"`
	Type string `json:"type" binding:"required"`
}

func (rh *ReportHandler) CreateReport(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and type are required"})
		return
	}

	result, err := rh.reports.Create(c.Request.Context(), middleware.Principal(c), req.Text, models.ReportType(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReportResponse(&result.Report, result.Text))
}

type updateReportRequest struct {
	Text string `json:"text" binding:"required"`
}

func (rh *ReportHandler) UpdateReport(c *gin.Context) {
	var req updateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	result, err := rh.reports.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toVersionResponse(&result.Version, result.Text))
}

func (rh *ReportHandler) GetReport(c *gin.Context) {
	result, err := rh.reports.Read(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReportResponse(&result.Report, result.Text))
}

func (rh *ReportHandler) GetInitialReport(c *gin.Context) {
	result, err := rh.reports.ReadInitial(c.Request.Context(), middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReportResponse(&result.Report, result.Text))
}

func (rh *ReportHandler) ListReports(c *gin.Context) {
	page, err := rh.index.ListReports(c.Request.Context(), c.Query("query"), pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	rh.respondReportPage(c, page)
}

func (rh *ReportHandler) ListMyReports(c *gin.Context) {
	principal := middleware.Principal(c)
	page, err := rh.index.ListReportsByAuthor(c.Request.Context(), principal.ID, pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	rh.respondReportPage(c, page)
}

func (rh *ReportHandler) ListUserReports(c *gin.Context) {
	if _, err := rh.index.GetUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "There is no such user."})
			return
		}
		respondError(c, err)
		return
	}

	page, err := rh.index.ListReportsByAuthor(c.Request.Context(), c.Param("id"), pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	rh.respondReportPage(c, page)
}

func (rh *ReportHandler) respondReportPage(c *gin.Context, page *index.Page[models.Report]) {
	items := make([]reportResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toReportResponse(&page.Items[i], ""))
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"totalCount": page.TotalCount,
		"page":       page.PageNumber,
		"limit":      page.Limit,
	})
}
