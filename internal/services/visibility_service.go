package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
)

// VisibilityService resolves which departments and projects a user may see.
//
// Managers see their department and every department below it. Everyone else
// sees exactly their own department. A user without a department sees
// nothing. Any lookup error aborts the resolution; callers decide whether to
// degrade to an empty result.
type VisibilityService struct {
	userRepo       repository.UserRepository
	departmentRepo repository.DepartmentRepository
	projectRepo    repository.ProjectRepository
}

// NewVisibilityService creates a new VisibilityService
func NewVisibilityService(userRepo repository.UserRepository, departmentRepo repository.DepartmentRepository, projectRepo repository.ProjectRepository) *VisibilityService {
	return &VisibilityService{
		userRepo:       userRepo,
		departmentRepo: departmentRepo,
		projectRepo:    projectRepo,
	}
}

// VisibleDepartmentIDs returns the sorted ids of the departments the user may view.
func (s *VisibilityService) VisibleDepartmentIDs(ctx context.Context, userID string) ([]uint64, error) {
	isManager, err := s.userRepo.HasRole(ctx, userID, models.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("failed to check manager role: %w", err)
	}

	departmentID, err := s.departmentRepo.FindUserDepartmentID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user department: %w", err)
	}
	if departmentID == nil {
		return []uint64{}, nil
	}

	if !isManager {
		return []uint64{*departmentID}, nil
	}

	ids, err := s.departmentRepo.Hierarchy(ctx, *departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to expand department hierarchy: %w", err)
	}
	return uniqueSortedUint64(ids), nil
}

// VisibleDepartments resolves the visible department ids to rows.
func (s *VisibilityService) VisibleDepartments(ctx context.Context, userID string) ([]models.Department, error) {
	ids, err := s.VisibleDepartmentIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Department{}, nil
	}

	departments, err := s.departmentRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch departments: %w", err)
	}
	return departments, nil
}

// VisibleProjectIDs returns the projects linked to any visible department.
func (s *VisibilityService) VisibleProjectIDs(ctx context.Context, userID string) ([]uint64, error) {
	departmentIDs, err := s.VisibleDepartmentIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(departmentIDs) == 0 {
		return []uint64{}, nil
	}

	projectIDs, err := s.departmentRepo.ProjectIDsForDepartments(ctx, departmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch department projects: %w", err)
	}
	return uniqueSortedUint64(projectIDs), nil
}

// VisibleProjects resolves the visible project ids to rows.
func (s *VisibilityService) VisibleProjects(ctx context.Context, userID string, includeArchived bool) ([]models.Project, error) {
	ids, err := s.VisibleProjectIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	projects, err := s.projectRepo.FindByIDs(ctx, ids, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return projects, nil
}

// DepartmentIDsForProjects is the reverse lookup used to filter department
// lists by a project selection.
func (s *VisibilityService) DepartmentIDsForProjects(ctx context.Context, projectIDs []uint64) ([]uint64, error) {
	projectIDs = uniqueSortedUint64(projectIDs)
	if len(projectIDs) == 0 {
		return []uint64{}, nil
	}

	ids, err := s.departmentRepo.DepartmentIDsForProjects(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project departments: %w", err)
	}
	return uniqueSortedUint64(ids), nil
}

// VisibleDepartmentsForProjects narrows the user's visible departments to
// those linked to any of the selected projects.
func (s *VisibilityService) VisibleDepartmentsForProjects(ctx context.Context, userID string, projectIDs []uint64) ([]models.Department, error) {
	departments, err := s.VisibleDepartments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(projectIDs) == 0 {
		return departments, nil
	}

	linked, err := s.DepartmentIDsForProjects(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	allowed := make(map[uint64]struct{}, len(linked))
	for _, id := range linked {
		allowed[id] = struct{}{}
	}

	filtered := make([]models.Department, 0, len(departments))
	for _, d := range departments {
		if _, ok := allowed[d.ID]; ok {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

// Colleagues lists assignee candidates in the user's department subtree.
func (s *VisibilityService) Colleagues(ctx context.Context, userID string) ([]models.UserInfo, error) {
	users, err := s.departmentRepo.Colleagues(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch colleagues: %w", err)
	}
	return users, nil
}

// uniqueSortedUint64 removes duplicates and sorts ascending
func uniqueSortedUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// uniqueStrings removes duplicate and empty values, keeping first-seen order
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
