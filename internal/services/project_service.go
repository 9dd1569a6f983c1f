package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/standup-board/internal/models"
	"github.com/yukikurage/standup-board/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNameRequired = errors.New("project name is required")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyMember       = errors.New("user is already a member of the project")
	ErrUsernameRequired    = errors.New("username is required")
	ErrUsernameTaken       = errors.New("username is already taken")
)

// ProjectService handles project and membership logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// ListProjects returns every project
func (s *ProjectService) ListProjects() ([]models.Project, error) {
	projects, err := s.projectRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	return project, nil
}

// CreateProject creates a project with the given members
func (s *ProjectService) CreateProject(name string, memberIDs ...uint64) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	project := &models.Project{Name: name}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	for _, userID := range memberIDs {
		if err := s.AddMember(project.ID, userID); err != nil {
			return nil, err
		}
	}
	return project, nil
}

// ListUsers returns the members of a project
func (s *ProjectService) ListUsers(projectID uint64) ([]models.User, error) {
	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}

	users := make([]models.User, len(members))
	for i, m := range members {
		users[i] = m.User
	}
	return users, nil
}

// AddMember adds an existing user to a project
func (s *ProjectService) AddMember(projectID, userID uint64) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	if err := s.projectRepo.AddMember(&models.ProjectMember{ProjectID: projectID, UserID: userID}); err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}
	return nil
}

// CreateUser creates a user with a unique username
func (s *ProjectService) CreateUser(username string) (*models.User, error) {
	user := &models.User{Username: strings.TrimSpace(username)}
	if user.Username == "" {
		return nil, ErrUsernameRequired
	}

	if _, err := s.userRepo.FindByUsername(user.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
