package department

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/identity"
)

type RepositoryAPI interface {
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error

	List(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64, forUpdate bool) (*departmentDatamodel.Department, error)
	GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error)
	Create(ctx context.Context, d *departmentDatamodel.Department) error
	Update(ctx context.Context, d *departmentDatamodel.Department) error
	Delete(ctx context.Context, id int64) error
	// Detach empties the department: people lose department and title,
	// tasks and meetings lose the reference, its titles are deleted.
	Detach(ctx context.Context, id int64) error

	FindTitle(ctx context.Context, departmentID int64, name string) (*titleDatamodel.Title, error)
	SaveTitle(ctx context.Context, t *titleDatamodel.Title) error

	GetPerson(ctx context.Context, id int64) (*personDatamodel.Person, error)
	// PeopleByIDs preloads titles.
	PeopleByIDs(ctx context.Context, ids []int64) ([]*personDatamodel.Person, error)
	// PlacedPeople returns everyone with a department, titles preloaded.
	PlacedPeople(ctx context.Context) ([]*personDatamodel.Person, error)
	PlacePerson(ctx context.Context, personID, departmentID, titleID int64) error

	SetHead(ctx context.Context, departmentID, personID int64) (bool, error)
	ClearHead(ctx context.Context, departmentID int64) error
	ReleaseHeadships(ctx context.Context, personID, keepDepartmentID int64) error
}

type RoleSynchronizer interface {
	Reconcile(ctx context.Context, c identity.Change) identity.Result
	EnsureProvisioned(ctx context.Context, email, fullName string, roles []user.Role) identity.Result
}

type Service struct {
	repo   RepositoryAPI
	sync   RoleSynchronizer
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, sync RoleSynchronizer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sync:   sync,
		logger: logger,
	}
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}

	heads, err := s.heads(ctx, depts)
	if err != nil {
		return nil, err
	}

	result := make([]*Department, len(depts))
	for i, d := range depts {
		result[i] = FromDataModel(d, headOf(d, heads))
	}
	return result, nil
}

func (s *Service) OrganizationStructure(ctx context.Context) (*OrganizationStructure, error) {
	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	people, err := s.repo.PlacedPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("list placed people: %w", err)
	}

	byID := make(map[int64]*personDatamodel.Person, len(people))
	byDepartment := make(map[int64][]*personDatamodel.Person)
	for _, p := range people {
		byID[p.ID] = p
		byDepartment[*p.DepartmentID] = append(byDepartment[*p.DepartmentID], p)
	}

	out := &OrganizationStructure{Departments: make([]OrganizationUnit, 0, len(depts))}
	for _, d := range depts {
		unit := OrganizationUnit{
			ID:        d.ID,
			Name:      d.Name,
			Color:     d.Color,
			Employees: make([]PersonSummary, 0, len(byDepartment[d.ID])),
		}
		head := headOf(d, byID)
		unit.HeadOfDepartment = summarize(head)
		for _, p := range byDepartment[d.ID] {
			if head != nil && head.ID == p.ID {
				continue
			}
			unit.Employees = append(unit.Employees, *summarize(p))
		}
		out.Departments = append(out.Departments, unit)
	}
	return out, nil
}

func (s *Service) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	d, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("get department: %w", err)
	}
	if d == nil {
		return nil, apperrors.ErrDepartmentNotFound
	}
	return s.withHead(ctx, d)
}

// CreateDepartment also creates the department's head title.
func (s *Service) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*Department, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d := &departmentDatamodel.Department{Name: req.Name, Color: NormalizeColor(req.Color)}
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		existing, err := repo.GetByName(ctx, req.Name)
		if err != nil {
			return fmt.Errorf("get department by name: %w", err)
		}
		if existing != nil {
			return apperrors.ErrDepartmentExists
		}
		if err := repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create department: %w", err)
		}
		_, err = ensureHeadTitle(ctx, repo, d)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("department created", "department_id", d.ID, "name", d.Name)
	return FromDataModel(d, nil), nil
}

// UpdateDepartment renames the head title along with the department.
func (s *Service) UpdateDepartment(ctx context.Context, id int64, req UpdateDepartmentRequest) (*Department, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var updated *departmentDatamodel.Department
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		d, err := repo.GetByID(ctx, id, true)
		if err != nil {
			return fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return apperrors.ErrDepartmentNotFound
		}

		if req.Name != nil && *req.Name != d.Name {
			other, err := repo.GetByName(ctx, *req.Name)
			if err != nil {
				return fmt.Errorf("get department by name: %w", err)
			}
			if other != nil && other.ID != d.ID {
				return apperrors.ErrDepartmentExists
			}

			headTitle, err := repo.FindTitle(ctx, d.ID, user.HeadTitleName(d.Name))
			if err != nil {
				return fmt.Errorf("find head title: %w", err)
			}
			if headTitle != nil {
				headTitle.Name = user.HeadTitleName(*req.Name)
				if err := repo.SaveTitle(ctx, headTitle); err != nil {
					return fmt.Errorf("rename head title: %w", err)
				}
			}
			d.Name = *req.Name
		}
		if req.Color != nil {
			d.Color = NormalizeColor(req.Color)
		}

		if err := repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update department: %w", err)
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("department updated", "department_id", id)
	return s.withHead(ctx, updated)
}

// AssignHead places the person in the department under its head title and
// makes them head. It fails when someone else already heads the department.
func (s *Service) AssignHead(ctx context.Context, departmentID int64, req AssignHeadRequest) (*Department, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		d         *departmentDatamodel.Department
		p         *personDatamodel.Person
		headTitle *titleDatamodel.Title
		moved     bool
	)
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		var err error
		d, err = repo.GetByID(ctx, departmentID, true)
		if err != nil {
			return fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return apperrors.ErrDepartmentNotFound
		}

		p, err = repo.GetPerson(ctx, req.PersonID)
		if err != nil {
			return fmt.Errorf("get person: %w", err)
		}
		if p == nil {
			return apperrors.ErrPersonNotFound
		}

		if d.HeadOfDepartmentID != nil && *d.HeadOfDepartmentID != p.ID {
			return apperrors.ErrDepartmentHasHead
		}

		headTitle, err = ensureHeadTitle(ctx, repo, d)
		if err != nil {
			return err
		}

		moved = p.DepartmentID == nil || *p.DepartmentID != d.ID || p.TitleID == nil || *p.TitleID != headTitle.ID
		if err := repo.PlacePerson(ctx, p.ID, d.ID, headTitle.ID); err != nil {
			return fmt.Errorf("place person: %w", err)
		}
		if err := repo.ReleaseHeadships(ctx, p.ID, d.ID); err != nil {
			return fmt.Errorf("release headships: %w", err)
		}
		ok, err := repo.SetHead(ctx, d.ID, p.ID)
		if err != nil {
			return fmt.Errorf("set head: %w", err)
		}
		if !ok {
			return apperrors.ErrDepartmentHasHead
		}
		d.HeadOfDepartmentID = &p.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("department head assigned", "department_id", d.ID, "person_id", p.ID)

	roles := user.DeriveRoles(d.Name, headTitle.Name)
	s.sync.Reconcile(ctx, identity.Change{
		OldEmail:      p.Email,
		NewEmail:      p.Email,
		FullName:      p.FullName(),
		RoleAffecting: moved,
		Roles:         roles,
		Placed:        true,
	})
	s.sync.EnsureProvisioned(ctx, p.Email, p.FullName(), roles)

	p.Title = headTitle
	p.TitleID = &headTitle.ID
	return FromDataModel(d, p), nil
}

func (s *Service) ClearHead(ctx context.Context, departmentID int64) (*Department, error) {
	var d *departmentDatamodel.Department
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		var err error
		d, err = repo.GetByID(ctx, departmentID, true)
		if err != nil {
			return fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return apperrors.ErrDepartmentNotFound
		}
		d.HeadOfDepartmentID = nil
		return repo.ClearHead(ctx, departmentID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("department head cleared", "department_id", departmentID)
	return FromDataModel(d, nil), nil
}

func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		d, err := repo.GetByID(ctx, id, true)
		if err != nil {
			return fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return apperrors.ErrDepartmentNotFound
		}
		if err := repo.Detach(ctx, id); err != nil {
			return fmt.Errorf("detach department: %w", err)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("department deleted", "department_id", id)
	return nil
}

func ensureHeadTitle(ctx context.Context, repo RepositoryAPI, d *departmentDatamodel.Department) (*titleDatamodel.Title, error) {
	name := user.HeadTitleName(d.Name)
	t, err := repo.FindTitle(ctx, d.ID, name)
	if err != nil {
		return nil, fmt.Errorf("find head title: %w", err)
	}
	if t != nil {
		return t, nil
	}

	t = &titleDatamodel.Title{Name: name, DepartmentID: &d.ID}
	if err := repo.SaveTitle(ctx, t); err != nil {
		return nil, fmt.Errorf("create head title: %w", err)
	}
	return t, nil
}

func (s *Service) withHead(ctx context.Context, d *departmentDatamodel.Department) (*Department, error) {
	heads, err := s.heads(ctx, []*departmentDatamodel.Department{d})
	if err != nil {
		return nil, err
	}
	return FromDataModel(d, headOf(d, heads)), nil
}

func (s *Service) heads(ctx context.Context, depts []*departmentDatamodel.Department) (map[int64]*personDatamodel.Person, error) {
	ids := make([]int64, 0, len(depts))
	for _, d := range depts {
		if d.HeadOfDepartmentID != nil {
			ids = append(ids, *d.HeadOfDepartmentID)
		}
	}
	if len(ids) == 0 {
		return map[int64]*personDatamodel.Person{}, nil
	}

	people, err := s.repo.PeopleByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load department heads: %w", err)
	}
	byID := make(map[int64]*personDatamodel.Person, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}
	return byID, nil
}

func headOf(d *departmentDatamodel.Department, people map[int64]*personDatamodel.Person) *personDatamodel.Person {
	if d.HeadOfDepartmentID == nil {
		return nil
	}
	return people[*d.HeadOfDepartmentID]
}
