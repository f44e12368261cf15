package person

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/personnel-suite/internal"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	"github.com/frahmantamala/personnel-suite/internal/core/events"
	"github.com/frahmantamala/personnel-suite/internal/core/user"
	"github.com/frahmantamala/personnel-suite/internal/identity"
	"github.com/frahmantamala/personnel-suite/pkg/logger"
)

// UpdateResult is the persisted person together with what changed.
type UpdateResult struct {
	Person  *Person
	Changes []ChangeRecord
}

type snapshot struct {
	email        string
	departmentID *int64
	titleID      *int64
}

// UpdatePerson applies req to the person. The person row and the department
// head references are written in one transaction; the change notification
// and the identity sync happen after commit and never fail the call.
func (s *Service) UpdatePerson(ctx context.Context, id int64, req UpdatePersonRequest) (*UpdateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lg := logger.FromOr(ctx, s.logger).With("person_id", id)

	var (
		before  snapshot
		updated *personDatamodel.Person
		targets Targets
		changes []ChangeRecord
	)
	err := s.repo.Transaction(ctx, func(repo RepositoryAPI) error {
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get person: %w", err)
		}
		if current == nil {
			return apperrors.ErrPersonNotFound
		}
		before = snapshot{email: current.Email, departmentID: current.DepartmentID, titleID: current.TitleID}

		targets, err = resolveTargets(ctx, repo, req.DepartmentID, req.TitleID)
		if err != nil {
			return err
		}

		if req.Email != nil && !sameEmail(*req.Email, current.Email) {
			if err := ensureEmailFree(ctx, repo, strings.TrimSpace(*req.Email), current.ID); err != nil {
				return err
			}
		}

		changes = DetectChanges(current, &req, targets)
		applyUpdate(current, &req, lg)
		place(current, targets)

		head := isHeadPlacement(targets)
		if head {
			holder := targets.Department.HeadOfDepartmentID
			if holder != nil && *holder != current.ID {
				return apperrors.ErrDepartmentHasHead
			}
		}

		if err := repo.Update(ctx, current); err != nil {
			return fmt.Errorf("update person: %w", err)
		}

		if head {
			if err := assignHead(ctx, repo, targets.Department.ID, current.ID); err != nil {
				return err
			}
		} else if err := repo.ReleaseHeadships(ctx, current.ID, 0); err != nil {
			return fmt.Errorf("release headships: %w", err)
		}

		updated = current
		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); !ok {
			lg.Error("failed to update person", "error", err)
		}
		return nil, err
	}

	lg.Info("person updated", "changes", len(changes))

	if len(changes) > 0 {
		s.publishChanges(ctx, updated, changes, lg)
	}
	s.syncIdentity(ctx, before, updated, targets)

	return &UpdateResult{Person: FromDataModel(updated), Changes: changes}, nil
}

func (s *Service) syncIdentity(ctx context.Context, before snapshot, p *personDatamodel.Person, targets Targets) {
	roleAffecting := !sameID(before.departmentID, p.DepartmentID) || !sameID(before.titleID, p.TitleID)
	placed := targets.Department != nil && targets.Title != nil
	roles := user.DeriveRoles(departmentName(targets.Department), titleName(targets.Title))

	s.sync.Reconcile(ctx, identity.Change{
		OldEmail:      before.email,
		NewEmail:      p.Email,
		FullName:      p.FullName(),
		RoleAffecting: roleAffecting,
		Roles:         roles,
		Placed:        placed,
	})

	if placed {
		s.sync.EnsureProvisioned(ctx, p.Email, p.FullName(), roles)
	}
}

func (s *Service) publishChanges(ctx context.Context, p *personDatamodel.Person, changes []ChangeRecord, lg *slog.Logger) {
	actorEmail, actorName := s.actor(ctx, p)
	evt := events.NewPersonChangedEvent(events.PersonChanged{
		PersonID:       p.ID,
		PersonEmail:    p.Email,
		PersonName:     p.FullName(),
		UpdatedByEmail: actorEmail,
		UpdatedByName:  actorName,
		UpdatedAt:      s.now(),
		Changes:        changes,
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		lg.Warn("failed to publish person change", "event_type", evt.EventType(), "error", err)
	}
}

// actor names whoever made the change: "Admin" for administrators, else the
// caller's own person record, else the updated person.
func (s *Service) actor(ctx context.Context, updated *personDatamodel.Person) (string, string) {
	principal, ok := apperrors.PrincipalFromContext(ctx)
	if !ok {
		return updated.Email, updated.FullName()
	}
	if principal.IsAdmin() {
		return principal.Email, "Admin"
	}
	if sameEmail(principal.Email, updated.Email) {
		return updated.Email, updated.FullName()
	}
	caller, err := s.repo.GetByEmail(ctx, principal.Email)
	if err != nil || caller == nil {
		return updated.Email, updated.FullName()
	}
	return caller.Email, caller.FullName()
}

// applyUpdate writes the present fields of req onto p. Unparseable salary
// and date values leave the stored value untouched.
func applyUpdate(p *personDatamodel.Person, req *UpdatePersonRequest, lg *slog.Logger) {
	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		p.Email = strings.TrimSpace(*req.Email)
	}

	text := []struct {
		dst **string
		src *string
	}{
		{&p.PhoneNumber, req.PhoneNumber},
		{&p.NationalID, req.NationalID},
		{&p.ContractType, req.ContractType},
		{&p.Gender, req.Gender},
		{&p.Address, req.Address},
		{&p.BankAccount, req.BankAccount},
		{&p.InsuranceNumber, req.InsuranceNumber},
		{&p.ProfilePictureURL, req.ProfilePictureURL},
	}
	for _, f := range text {
		if f.src != nil {
			*f.dst = clearable(*f.src)
		}
	}

	if req.Salary != nil {
		if salary, ok := parseSalary(*req.Salary); ok {
			p.Salary = salary
		} else {
			lg.Warn("ignoring unparseable salary", "value", *req.Salary)
		}
	}

	dates := []struct {
		field string
		dst   **time.Time
		src   *string
	}{
		{"contractStartDate", &p.ContractStartDate, req.ContractStartDate},
		{"contractEndDate", &p.ContractEndDate, req.ContractEndDate},
		{"birthDate", &p.BirthDate, req.BirthDate},
	}
	for _, f := range dates {
		if f.src == nil {
			continue
		}
		if d, ok := parseDate(*f.src); ok {
			*f.dst = d
		} else {
			lg.Warn("ignoring unparseable date", "field", f.field, "value", *f.src)
		}
	}
}
