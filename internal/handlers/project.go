package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/dto"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/middleware"
	"github.com/yukikurage/standup-board/internal/services"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ListProjects returns every project
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects()
	if err != nil {
		respondServiceError(c, err, "Failed to fetch projects")
		return
	}

	items := make([]dto.ProjectDTO, len(projects))
	for i, p := range projects {
		items[i] = dto.ToProjectDTO(p)
	}
	c.JSON(http.StatusOK, items)
}

// ListUsers returns the members of a project
func (h *ProjectHandler) ListUsers(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	users, err := h.projectService.ListUsers(project.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch project members")
		return
	}

	items := make([]dto.UserDTO, len(users))
	for i, u := range users {
		items[i] = dto.ToUserDTO(u)
	}
	c.JSON(http.StatusOK, items)
}

// CreateUser registers a user on the collaborator
func (h *ProjectHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	user, err := h.projectService.CreateUser(req.Username)
	if err != nil {
		respondServiceError(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// CreateProject creates a project with its initial members
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(req.Name, req.Members...)
	if err != nil {
		respondServiceError(c, err, "Failed to create project")
		return
	}
	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// AddMember adds an existing user to the project
func (h *ProjectHandler) AddMember(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.InvalidFormat(c, "Invalid request body")
		return
	}

	if err := h.projectService.AddMember(project.ID, req.UserID); err != nil {
		respondServiceError(c, err, "Failed to add project member")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}
