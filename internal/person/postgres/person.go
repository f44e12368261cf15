package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/personnel-suite/internal/core/common/validation"
	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/person"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) person.RepositoryAPI {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) Transaction(ctx context.Context, fn func(repo person.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PersonRepository{db: tx})
	})
}

func (r *PersonRepository) GetByID(ctx context.Context, id int64) (*personDatamodel.Person, error) {
	var p personDatamodel.Person
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Title").
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PersonRepository) GetByEmail(ctx context.Context, email string) (*personDatamodel.Person, error) {
	var p personDatamodel.Person
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Title").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PersonRepository) List(ctx context.Context, filter person.ListFilter) ([]*personDatamodel.Person, int64, error) {
	q := r.db.WithContext(ctx).Model(&personDatamodel.Person{})

	if s := strings.TrimSpace(filter.Query); s != "" {
		like := containsPattern(s)
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone_number) LIKE ?",
			like, like, like, like)
	}

	likes := map[string]string{
		"first_name":   filter.FirstName,
		"last_name":    filter.LastName,
		"email":        filter.Email,
		"phone_number": filter.PhoneNumber,
		"address":      filter.Address,
	}
	for col, v := range likes {
		if v = strings.TrimSpace(v); v != "" {
			q = q.Where("LOWER("+col+") LIKE ?", containsPattern(v))
		}
	}

	if g := strings.TrimSpace(filter.Gender); g != "" {
		q = q.Where("LOWER(gender) = ?", strings.ToLower(g))
	}
	if filter.DepartmentID > 0 {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.TitleID > 0 {
		q = q.Where("title_id = ?", filter.TitleID)
	}
	ranges := []struct {
		cond  string
		value *string
	}{
		{"contract_start_date >= ?", filter.ContractStartFrom},
		{"contract_start_date <= ?", filter.ContractStartTo},
		{"birth_date >= ?", filter.BirthDateFrom},
		{"birth_date <= ?", filter.BirthDateTo},
	}
	for _, rg := range ranges {
		if rg.value == nil {
			continue
		}
		// Normalize has rejected malformed dates
		if d, _ := validation.ParseDate(*rg.value); d != nil {
			q = q.Where(rg.cond, *d)
		}
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var people []*personDatamodel.Person
	err := q.Session(&gorm.Session{}).
		Preload("Department").
		Preload("Title").
		Order(clause.OrderByColumn{
			Column: clause.Column{Name: person.SortColumn(filter.SortBy)},
			Desc:   filter.Direction == "desc",
		}).
		Limit(filter.Size).
		Offset(filter.Page * filter.Size).
		Find(&people).Error
	return people, total, err
}

func (r *PersonRepository) Create(ctx context.Context, p *personDatamodel.Person) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// Update never cascades into the preloaded department and title.
func (r *PersonRepository) Update(ctx context.Context, p *personDatamodel.Person) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&personDatamodel.Person{}, id).Error
}

func (r *PersonRepository) DetachReferences(ctx context.Context, personID int64) error {
	db := r.db.WithContext(ctx)

	if err := db.Model(&departmentDatamodel.Department{}).
		Where("head_of_department_id = ?", personID).
		Update("head_of_department_id", nil).Error; err != nil {
		return err
	}
	if err := db.Table("meetings").
		Where("organizer_id = ?", personID).
		Update("organizer_id", nil).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM meeting_participants WHERE person_id = ?", personID).Error; err != nil {
		return err
	}
	if err := db.Model(&taskDatamodel.Task{}).
		Where("assignee_id = ?", personID).
		Update("assignee_id", nil).Error; err != nil {
		return err
	}
	return db.Model(&taskDatamodel.Task{}).
		Where("created_by_id = ?", personID).
		Update("created_by_id", nil).Error
}

func (r *PersonRepository) GetDepartment(ctx context.Context, id int64, forUpdate bool) (*departmentDatamodel.Department, error) {
	q := r.db.WithContext(ctx)
	// sqlite has no row locks
	if forUpdate && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var d departmentDatamodel.Department
	if err := q.Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *PersonRepository) GetTitle(ctx context.Context, id int64) (*titleDatamodel.Title, error) {
	var t titleDatamodel.Title
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PersonRepository) AssignHead(ctx context.Context, departmentID, personID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("id = ? AND (head_of_department_id IS NULL OR head_of_department_id = ?)", departmentID, personID).
		Update("head_of_department_id", personID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PersonRepository) ReleaseHeadships(ctx context.Context, personID, keepDepartmentID int64) error {
	q := r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("head_of_department_id = ?", personID)
	if keepDepartmentID > 0 {
		q = q.Where("id <> ?", keepDepartmentID)
	}
	return q.Update("head_of_department_id", nil).Error
}

func containsPattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
