package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"order_srv/internal/models"
	"order_srv/internal/reporting"
	"order_srv/internal/service"
)

// reportRequest is the payload for creating a report.
type reportRequest struct {
	Title          string `json:"title"`
	ReportType     string `json:"report_type"`
	PeriodFrom     string `json:"period_from"`
	PeriodTo       string `json:"period_to"`
	Format         string `json:"format"`
	Grouping       string `json:"grouping"`
	RecipientEmail string `json:"recipient_email"`
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// createReport handles report creation; generation runs inline and the
// response carries the resulting status.
func (s *Server) createReport(c echo.Context) error {
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request format",
		})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Title is required",
		})
	}

	periodFrom, err := parseDate(req.PeriodFrom)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid period_from, expected YYYY-MM-DD",
		})
	}
	periodTo, err := parseDate(req.PeriodTo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid period_to, expected YYYY-MM-DD",
		})
	}

	report := &models.Report{
		Title:          req.Title,
		ReportType:     req.ReportType,
		PeriodFrom:     periodFrom,
		PeriodTo:       periodTo,
		Format:         req.Format,
		Grouping:       req.Grouping,
		RecipientEmail: req.RecipientEmail,
	}

	if err := s.reports.Create(c.Request().Context(), report); err != nil {
		s.logger.WithError(err).Error("Failed to create report")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create report",
		})
	}

	return c.JSON(http.StatusCreated, report)
}

// listReports handles listing reports
func (s *Server) listReports(c echo.Context) error {
	params := service.ListReportParams{
		ReportType: c.QueryParam("report_type"),
		Status:     c.QueryParam("status"),
	}

	reports, err := s.reports.List(c.Request().Context(), params)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reports")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list reports",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// getReport handles getting a single report
func (s *Server) getReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}

	report, err := s.reports.Get(c.Request().Context(), id)
	if err != nil {
		return reportError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// deleteReport handles report deletion
func (s *Server) deleteReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}

	if err := s.reports.Delete(c.Request().Context(), id); err != nil {
		return reportError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Report deleted successfully",
	})
}

// generateReport re-runs the full generation transition for a report.
func (s *Server) generateReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}

	if err := s.reports.Generate(c.Request().Context(), id); err != nil {
		return reportError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": models.StatusReady})
}

// previewReport returns up to ?limit rows of the rendered report,
// generating it first if needed.
func (s *Server) previewReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid limit",
			})
		}
	}

	preview, err := s.reports.GetPreview(c.Request().Context(), id, limit)
	if err != nil {
		return reportError(c, err)
	}
	return c.JSON(http.StatusOK, preview)
}

// downloadReport streams the report artifact as an attachment,
// generating it first if needed.
func (s *Server) downloadReport(c echo.Context) error {
	id, err := reportID(c)
	if err != nil {
		return err
	}

	rc, filename, err := s.reports.Download(c.Request().Context(), id)
	if err != nil {
		return reportError(c, err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Stream(http.StatusOK, "text/csv; charset=utf-8", rc)
}

func reportID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid report ID")
	}
	return uint(id), nil
}

// reportError maps service failures onto HTTP responses: missing reports are
// 404, validation and generation failures are client-visible 400s with the
// failure message, everything else is a 500.
func reportError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrReportNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Report not found",
		})
	}

	var ve *reporting.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"status": models.StatusError,
			"error":  ve.Error(),
		})
	}

	return c.JSON(http.StatusBadRequest, map[string]string{
		"status": models.StatusError,
		"error":  err.Error(),
	})
}
