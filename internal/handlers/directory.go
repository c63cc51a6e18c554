package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/dto"
	apierrors "github.com/yukikurage/teamtask/internal/errors"
	"github.com/yukikurage/teamtask/internal/services"
)

// DirectoryHandler serves the department, project and colleague lists
type DirectoryHandler struct {
	visibility *services.VisibilityService
	log        logrus.FieldLogger
}

func NewDirectoryHandler(visibility *services.VisibilityService, log logrus.FieldLogger) *DirectoryHandler {
	return &DirectoryHandler{
		visibility: visibility,
		log:        log,
	}
}

// ListDepartments handles GET /departments?project_id=1&project_id=2
func (h *DirectoryHandler) ListDepartments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectIDs := make([]uint64, 0)
	for _, raw := range c.QueryArray("project_id") {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		projectIDs = append(projectIDs, id)
	}

	departments, err := h.visibility.VisibleDepartmentsForProjects(c.Request.Context(), userID, projectIDs)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": dto.ToDepartmentDTOs(departments)})
}

// ListProjects handles GET /projects?include_archived=true
func (h *DirectoryHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.visibility.VisibleProjects(c.Request.Context(), userID, c.Query("include_archived") == "true")
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectDTOs(projects)})
}

// ListColleagues handles GET /users/colleagues
func (h *DirectoryHandler) ListColleagues(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	users, err := h.visibility.Colleagues(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(users)})
}
