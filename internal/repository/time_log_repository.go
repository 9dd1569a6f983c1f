package repository

import (
	"gorm.io/gorm"

	"github.com/yukikurage/standup-board/internal/models"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

func (r *GormTimeLogRepository) Create(entry *models.TimeLog) error {
	return r.db.Create(entry).Error
}

// FindByID finds a log with its task loaded
func (r *GormTimeLogRepository) FindByID(id uint64) (*models.TimeLog, error) {
	var entry models.TimeLog
	if err := r.db.Preload("Task").First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormTimeLogRepository) Update(entry *models.TimeLog) error {
	return r.db.Omit("Task").Save(entry).Error
}

func (r *GormTimeLogRepository) Delete(id uint64) error {
	return r.db.Delete(&models.TimeLog{}, id).Error
}

// ListByTask lists every log of a task, oldest first
func (r *GormTimeLogRepository) ListByTask(taskID uint64) ([]models.TimeLog, error) {
	var entries []models.TimeLog
	if err := r.db.Preload("Task").
		Where("task_id = ?", taskID).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByProjectAndDate lists a project's logs for one day. Logs of deleted
// tasks are excluded.
func (r *GormTimeLogRepository) ListByProjectAndDate(projectID uint64, date models.Date) ([]models.TimeLog, error) {
	var entries []models.TimeLog
	if err := r.db.Preload("Task").
		Joins("JOIN tasks ON tasks.id = time_logs.task_id AND tasks.deleted_at IS NULL").
		Where("tasks.project_id = ? AND time_logs.task_date = ?", projectID, date).
		Order("time_logs.id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumByTask totals a task's hours, optionally for one day only
func (r *GormTimeLogRepository) SumByTask(taskID uint64, date *models.Date) (float64, error) {
	var total float64
	query := r.db.Model(&models.TimeLog{}).Where("task_id = ?", taskID)
	if date != nil {
		query = query.Where("task_date = ?", *date)
	}
	if err := query.Select("COALESCE(SUM(log_time), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
