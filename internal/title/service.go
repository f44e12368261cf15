package title

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
)

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error

	List(ctx context.Context) ([]*titleDatamodel.Title, error)
	ListByDepartment(ctx context.Context, departmentID int64) ([]*titleDatamodel.Title, error)
	GetByID(ctx context.Context, id int64) (*titleDatamodel.Title, error)
	GetByName(ctx context.Context, name string) (*titleDatamodel.Title, error)
	Create(ctx context.Context, t *titleDatamodel.Title) error
	Update(ctx context.Context, t *titleDatamodel.Title) error
	Delete(ctx context.Context, id int64) error

	GetDepartment(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	// UnassignTitle removes the title from everyone holding it.
	UnassignTitle(ctx context.Context, titleID int64) error
	ClearHead(ctx context.Context, departmentID int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListTitles(ctx context.Context) ([]*Title, error) {
	titles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	return FromDataModelSlice(titles), nil
}

func (s *Service) ListTitlesByDepartment(ctx context.Context, departmentID int64) ([]*Title, error) {
	titles, err := s.repo.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list titles by department: %w", err)
	}
	return FromDataModelSlice(titles), nil
}

func (s *Service) CreateTitle(ctx context.Context, req CreateTitleRequest) (*Title, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := &titleDatamodel.Title{Name: req.Name}
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if err := ensureNameFree(ctx, repo, req.Name, 0); err != nil {
			return err
		}
		d, err := repo.GetDepartment(ctx, req.DepartmentID)
		if err != nil {
			return fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return apperrors.ErrDepartmentNotFound
		}
		t.DepartmentID = &d.ID
		t.Department = d
		return repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("title created", "title_id", t.ID, "name", t.Name)
	return FromDataModel(t), nil
}

func (s *Service) UpdateTitle(ctx context.Context, id int64, req UpdateTitleRequest) (*Title, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *titleDatamodel.Title
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		t, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get title: %w", err)
		}
		if t == nil {
			return apperrors.ErrTitleNotFound
		}

		if req.Name != nil {
			if err := ensureNameFree(ctx, repo, *req.Name, t.ID); err != nil {
				return err
			}
			t.Name = *req.Name
		}
		if req.DepartmentID != nil {
			d, err := repo.GetDepartment(ctx, *req.DepartmentID)
			if err != nil {
				return fmt.Errorf("get department: %w", err)
			}
			if d == nil {
				return apperrors.ErrDepartmentNotFound
			}
			t.DepartmentID = &d.ID
			t.Department = d
		}

		if err := repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("title updated", "title_id", id)
	return FromDataModel(updated), nil
}

// DeleteTitle unassigns the title first. Deleting a department's head title
// also clears the department head.
func (s *Service) DeleteTitle(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		t, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get title: %w", err)
		}
		if t == nil {
			return apperrors.ErrTitleNotFound
		}

		if t.Department != nil && user.IsHeadTitle(t.Department.Name, t.Name) {
			if err := repo.ClearHead(ctx, t.Department.ID); err != nil {
				return fmt.Errorf("clear head: %w", err)
			}
		}
		if err := repo.UnassignTitle(ctx, id); err != nil {
			return fmt.Errorf("unassign title: %w", err)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("title deleted", "title_id", id)
	return nil
}

func ensureNameFree(ctx context.Context, repo RepositoryAPI, name string, selfID int64) error {
	existing, err := repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get title by name: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return apperrors.ErrTitleExists
	}
	return nil
}
