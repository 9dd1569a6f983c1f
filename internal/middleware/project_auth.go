package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/constants"
	"github.com/yukikurage/standup-board/internal/database"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

// RequireProject loads the project named by the :id parameter into the
// context
func RequireProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseID(c, "project")
		if !ok {
			return
		}

		var project models.Project
		if err := database.GetDB().First(&project, projectID).Error; err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// GetProject returns the project loaded by RequireProject
func GetProject(c *gin.Context) (models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}
	project, ok := value.(models.Project)
	return project, ok
}
