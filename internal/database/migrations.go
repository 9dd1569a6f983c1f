package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yukikurage/standup-board/internal/models"
)

// AddIndexes adds the indexes the board queries rely on. It goes through
// the gorm migrator so every supported driver is handled.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		// Catalog and board load
		{&models.Task{}, "idx_tasks_project_id", "project_id"},
		{&models.Task{}, "idx_tasks_user_id", "user_id"},
		{&models.Task{}, "idx_tasks_status", "status"},
		{&models.Task{}, "idx_tasks_task_date", "task_date"},

		// Time log totals and day listings
		{&models.TimeLog{}, "idx_time_logs_task_id", "task_id"},
		{&models.TimeLog{}, "idx_time_logs_task_date", "task_date"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to resolve table for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, stmt.Schema.Table, idx.columns)
	}

	return nil
}

// Seed creates the demo users, project and tasks unless users already exist
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := &models.User{Username: "admin"}
		tester := &models.User{Username: "testuser"}
		if err := tx.Create([]*models.User{admin, tester}).Error; err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		project := &models.Project{Name: "Test Project"}
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("failed to seed project: %w", err)
		}

		members := []models.ProjectMember{
			{ProjectID: project.ID, UserID: admin.ID},
			{ProjectID: project.ID, UserID: tester.ID},
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to seed members: %w", err)
		}

		tasks := []models.Task{
			{Title: "Task 1", Status: models.TaskStatusTodo, UserID: admin.ID, ProjectID: project.ID},
			{Title: "Task 2", Status: models.TaskStatusTodo, UserID: tester.ID, ProjectID: project.ID},
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return fmt.Errorf("failed to seed tasks: %w", err)
		}

		log.Printf("Seeded project %q with %d tasks", project.Name, len(tasks))
		return nil
	})
}
