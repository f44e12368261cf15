package person

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/identity"
)

// RepositoryAPI is the person store. Lookups return nil, nil when the row
// does not exist.
type RepositoryAPI interface {
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(repo RepositoryAPI) error) error

	GetByID(ctx context.Context, id int64) (*personDatamodel.Person, error)
	GetByEmail(ctx context.Context, email string) (*personDatamodel.Person, error)
	List(ctx context.Context, filter ListFilter) ([]*personDatamodel.Person, int64, error)
	Create(ctx context.Context, p *personDatamodel.Person) error
	Update(ctx context.Context, p *personDatamodel.Person) error
	Delete(ctx context.Context, id int64) error
	// DetachReferences clears everything that points at the person: department
	// heads, meeting organizer and participation, task assignee and creator.
	DetachReferences(ctx context.Context, personID int64) error

	// GetDepartment locks the row on stores that support it when forUpdate is set.
	GetDepartment(ctx context.Context, id int64, forUpdate bool) (*departmentDatamodel.Department, error)
	GetTitle(ctx context.Context, id int64) (*titleDatamodel.Title, error)
	// AssignHead sets the head only when the department has none or already
	// has personID. It reports false when another person holds it.
	AssignHead(ctx context.Context, departmentID, personID int64) (bool, error)
	// ReleaseHeadships clears the head of every department headed by personID
	// except keepDepartmentID (0 keeps none).
	ReleaseHeadships(ctx context.Context, personID, keepDepartmentID int64) error
}

// RoleSynchronizer mirrors placements into the identity provider.
type RoleSynchronizer interface {
	Reconcile(ctx context.Context, c identity.Change) identity.Result
	EnsureProvisioned(ctx context.Context, email, fullName string, roles []user.Role) identity.Result
}

type Service struct {
	repo      RepositoryAPI
	sync      RoleSynchronizer
	publisher events.Publisher
	logger    *slog.Logger
	// now is replaceable in tests.
	now func() time.Time
}

func NewService(repo RepositoryAPI, sync RoleSynchronizer, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sync:      sync,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) ListPeople(ctx context.Context, filter ListFilter) (*Page, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	people, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list people", "error", err)
		return nil, fmt.Errorf("list people: %w", err)
	}
	return NewPage(FromDataModelSlice(people), filter, total), nil
}

func (s *Service) GetPerson(ctx context.Context, id int64) (*Person, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	if p == nil {
		return nil, apperrors.ErrPersonNotFound
	}
	return FromDataModel(p), nil
}

// GetMe returns the person record of the authenticated caller.
func (s *Service) GetMe(ctx context.Context) (*Person, error) {
	principal, ok := apperrors.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrMissingPrincipal
	}
	p, err := s.repo.GetByEmail(ctx, principal.Email)
	if err != nil {
		return nil, fmt.Errorf("get person by email: %w", err)
	}
	if p == nil {
		return nil, apperrors.ErrPersonNotFound
	}
	return FromDataModel(p), nil
}

func (s *Service) CreatePerson(ctx context.Context, req CreatePersonRequest) (*Person, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *personDatamodel.Person
	var targets Targets
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		if err := ensureEmailFree(ctx, repo, req.Email, 0); err != nil {
			return err
		}

		var err error
		targets, err = resolveTargets(ctx, repo, req.DepartmentID, req.TitleID)
		if err != nil {
			return err
		}

		p := &personDatamodel.Person{
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			Email:             req.Email,
			PhoneNumber:       optional(req.PhoneNumber),
			NationalID:        optional(req.NationalID),
			ContractType:      optional(req.ContractType),
			Salary:            req.Salary,
			Gender:            optional(req.Gender),
			Address:           optional(req.Address),
			BankAccount:       optional(req.BankAccount),
			InsuranceNumber:   optional(req.InsuranceNumber),
			ProfilePictureURL: optional(req.ProfilePictureURL),
		}
		// already validated as isodate
		p.ContractStartDate, _ = optionalDate(req.ContractStartDate)
		p.ContractEndDate, _ = optionalDate(req.ContractEndDate)
		p.BirthDate, _ = optionalDate(req.BirthDate)
		place(p, targets)

		head := isHeadPlacement(targets)
		if head && targets.Department.HeadOfDepartmentID != nil {
			return apperrors.ErrDepartmentHasHead
		}

		if err := repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create person: %w", err)
		}

		if head {
			if err := assignHead(ctx, repo, targets.Department.ID, p.ID); err != nil {
				return err
			}
		}

		created = p
		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); !ok {
			s.logger.Error("failed to create person", "email", req.Email, "error", err)
		}
		return nil, err
	}

	s.logger.Info("person created", "person_id", created.ID, "email", created.Email)

	roles := user.DeriveRoles(departmentName(targets.Department), titleName(targets.Title))
	s.sync.EnsureProvisioned(ctx, created.Email, created.FullName(), roles)

	return FromDataModel(created), nil
}

func (s *Service) DeletePerson(ctx context.Context, id int64) error {
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get person: %w", err)
		}
		if p == nil {
			return apperrors.ErrPersonNotFound
		}
		if err := repo.DetachReferences(ctx, id); err != nil {
			return fmt.Errorf("detach person references: %w", err)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrPersonNotFound) {
			s.logger.Error("failed to delete person", "person_id", id, "error", err)
		}
		return err
	}

	s.logger.Info("person deleted", "person_id", id)
	return nil
}

func resolveTargets(ctx context.Context, repo RepositoryAPI, deptID, titleID *int64) (Targets, error) {
	var targets Targets
	if deptID != nil && *deptID > 0 {
		d, err := repo.GetDepartment(ctx, *deptID, true)
		if err != nil {
			return targets, fmt.Errorf("get department: %w", err)
		}
		if d == nil {
			return targets, apperrors.ErrDepartmentNotFound
		}
		targets.Department = d
	}
	if titleID != nil && *titleID > 0 {
		t, err := repo.GetTitle(ctx, *titleID)
		if err != nil {
			return targets, fmt.Errorf("get title: %w", err)
		}
		if t == nil {
			return targets, apperrors.ErrTitleNotFound
		}
		targets.Title = t
	}
	return targets, nil
}

func ensureEmailFree(ctx context.Context, repo RepositoryAPI, email string, selfID int64) error {
	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return apperrors.ErrEmailTaken
	}
	return nil
}

func assignHead(ctx context.Context, repo RepositoryAPI, departmentID, personID int64) error {
	if err := repo.ReleaseHeadships(ctx, personID, departmentID); err != nil {
		return fmt.Errorf("release headships: %w", err)
	}
	ok, err := repo.AssignHead(ctx, departmentID, personID)
	if err != nil {
		return fmt.Errorf("assign head: %w", err)
	}
	if !ok {
		return apperrors.ErrDepartmentHasHead
	}
	return nil
}

func isHeadPlacement(t Targets) bool {
	return t.Department != nil && t.Title != nil && user.IsHeadTitle(t.Department.Name, t.Title.Name)
}

func place(p *personDatamodel.Person, t Targets) {
	p.DepartmentID = departmentID(t.Department)
	p.Department = t.Department
	p.TitleID = titleID(t.Title)
	p.Title = t.Title
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	return clearable(*s)
}

func optionalDate(s *string) (*time.Time, bool) {
	if s == nil {
		return nil, true
	}
	return parseDate(*s)
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
