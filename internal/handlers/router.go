package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/standup-board/internal/database"
	"github.com/yukikurage/standup-board/internal/middleware"
	"github.com/yukikurage/standup-board/internal/repository"
	"github.com/yukikurage/standup-board/internal/services"
)

// NewRouter wires the collaborator's REST surface over the database set in
// the database package. clock resolves "today" for log listings and
// defaults to time.Now.
func NewRouter(clock func() time.Time) *gin.Engine {
	db := database.GetDB()

	taskRepo := repository.NewTaskRepository(db)
	logRepo := repository.NewTimeLogRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)

	taskService := services.NewTaskService(taskRepo, projectRepo)
	logService := services.NewLogService(logRepo, taskRepo, clock)
	projectService := services.NewProjectService(projectRepo, userRepo)

	taskHandler := NewTaskHandler(taskService, logService)
	logHandler := NewLogHandler(logService)
	projectHandler := NewProjectHandler(projectService)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Standup board collaborator is running",
		})
	})

	r.GET("/projects", projectHandler.ListProjects)
	r.POST("/project/create", projectHandler.CreateProject)
	r.POST("/user/create", projectHandler.CreateUser)

	project := r.Group("/project/:id", middleware.RequireProject())
	{
		project.GET("/users", projectHandler.ListUsers)
		project.GET("/tasks", taskHandler.ListTasks)
		project.GET("/logs", logHandler.ListProjectLogs)
		project.GET("/blockers", taskHandler.ListBlockers)
		project.POST("/members", projectHandler.AddMember)
	}

	r.POST("/task/create", taskHandler.CreateTask)
	task := r.Group("/task/:id", middleware.RequireTask())
	{
		task.GET("/logs", taskHandler.ListLogs)
		task.GET("/total_time", taskHandler.TotalTime)
		task.POST("/update", taskHandler.UpdateTask)
		task.POST("/delete", taskHandler.DeleteTask)
	}

	r.POST("/log/create", logHandler.CreateLog)
	entry := r.Group("/log/:id", middleware.RequireLog())
	{
		entry.POST("/update", logHandler.UpdateLog)
		entry.POST("/delete", logHandler.DeleteLog)
	}

	r.POST("/placement/update", taskHandler.UpdatePlacement)

	return r
}
