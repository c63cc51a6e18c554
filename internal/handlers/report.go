package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/teamtask/internal/errors"
	"github.com/yukikurage/teamtask/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	log           logrus.FieldLogger
}

func NewReportHandler(reportService *services.ReportService, log logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log,
	}
}

// Summary handles GET /reports/summary?project_id=&from=&to=
func (h *ReportHandler) Summary(c *gin.Context) {
	filter, ok := reportFilter(c)
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), filter)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Team handles GET /reports/team?project_id=&from=&to=
func (h *ReportHandler) Team(c *gin.Context) {
	filter, ok := reportFilter(c)
	if !ok {
		return
	}

	members, err := h.reportService.Team(c.Request.Context(), filter)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Calendar handles GET /calendar.ics
func (h *ReportHandler) Calendar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ics, err := h.reportService.Calendar(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="tasks.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// reportFilter reads project_id, from and to. from and to accept RFC 3339 or
// YYYY-MM-DD; a bare to date includes that whole day.
func reportFilter(c *gin.Context) (services.ReportFilter, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return services.ReportFilter{}, false
	}
	filter := services.ReportFilter{UserID: userID}

	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return services.ReportFilter{}, false
		}
		filter.ProjectID = &id
	}

	for _, bound := range []struct {
		name   string
		target **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := c.Query(bound.name)
		t, err := parseOptionalDate(&raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid "+bound.name+": "+err.Error())
			return services.ReportFilter{}, false
		}
		*bound.target = t
	}

	// Bare dates parse to 23:59:59 of that day. "from" starts the day and
	// the exclusive "to" bound moves to the next midnight.
	if filter.From != nil && isBareDate(c.Query("from")) {
		from := filter.From.Add(-(23*time.Hour + 59*time.Minute + 59*time.Second))
		filter.From = &from
	}
	if filter.To != nil && isBareDate(c.Query("to")) {
		to := filter.To.Add(time.Second)
		filter.To = &to
	}

	return filter, true
}

func isBareDate(value string) bool {
	return len(value) == len("2006-01-02")
}
