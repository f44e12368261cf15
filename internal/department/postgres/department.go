package postgres

import (
	"context"
	"errors"
	"strings"

	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	meetingDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/meeting"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/department"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Transaction(ctx context.Context, fn func(repo department.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DepartmentRepository{db: tx})
	})
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var depts []*departmentDatamodel.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&depts).Error
	return depts, err
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64, forUpdate bool) (*departmentDatamodel.Department, error) {
	q := r.db.WithContext(ctx)
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

func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).Create(d).Error
}

// Update leaves head_of_department_id alone; heads change through SetHead
// and ClearHead only.
func (r *DepartmentRepository) Update(ctx context.Context, d *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).
		Model(d).
		Select("name", "color", "updated_at").
		Updates(d).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&departmentDatamodel.Department{}, id).Error
}

func (r *DepartmentRepository) Detach(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)

	if err := db.Model(&departmentDatamodel.Department{}).
		Where("id = ?", id).
		Update("head_of_department_id", nil).Error; err != nil {
		return err
	}

	titleIDs := db.Model(&titleDatamodel.Title{}).Select("id").Where("department_id = ?", id)
	if err := db.Model(&personDatamodel.Person{}).
		Where("department_id = ? OR title_id IN (?)", id, titleIDs).
		Updates(map[string]interface{}{"department_id": nil, "title_id": nil}).Error; err != nil {
		return err
	}
	if err := db.Model(&taskDatamodel.Task{}).
		Where("department_id = ?", id).
		Update("department_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&meetingDatamodel.Meeting{}).
		Where("department_id = ?", id).
		Update("department_id", nil).Error; err != nil {
		return err
	}
	return db.Where("department_id = ?", id).Delete(&titleDatamodel.Title{}).Error
}

func (r *DepartmentRepository) FindTitle(ctx context.Context, departmentID int64, name string) (*titleDatamodel.Title, error) {
	var t titleDatamodel.Title
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND LOWER(name) = ?", departmentID, strings.ToLower(strings.TrimSpace(name))).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *DepartmentRepository) SaveTitle(ctx context.Context, t *titleDatamodel.Title) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error
}

func (r *DepartmentRepository) GetPerson(ctx context.Context, id int64) (*personDatamodel.Person, error) {
	var p personDatamodel.Person
	if err := r.db.WithContext(ctx).Preload("Title").Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *DepartmentRepository) PeopleByIDs(ctx context.Context, ids []int64) ([]*personDatamodel.Person, error) {
	var people []*personDatamodel.Person
	err := r.db.WithContext(ctx).Preload("Title").Where("id IN ?", ids).Find(&people).Error
	return people, err
}

func (r *DepartmentRepository) PlacedPeople(ctx context.Context) ([]*personDatamodel.Person, error) {
	var people []*personDatamodel.Person
	err := r.db.WithContext(ctx).
		Preload("Title").
		Where("department_id IS NOT NULL").
		Order("last_name ASC, first_name ASC").
		Find(&people).Error
	return people, err
}

func (r *DepartmentRepository) PlacePerson(ctx context.Context, personID, departmentID, titleID int64) error {
	return r.db.WithContext(ctx).
		Model(&personDatamodel.Person{}).
		Where("id = ?", personID).
		Updates(map[string]interface{}{"department_id": departmentID, "title_id": titleID}).Error
}

func (r *DepartmentRepository) SetHead(ctx context.Context, departmentID, personID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("id = ? AND (head_of_department_id IS NULL OR head_of_department_id = ?)", departmentID, personID).
		Update("head_of_department_id", personID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DepartmentRepository) ClearHead(ctx context.Context, departmentID int64) error {
	return r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("id = ?", departmentID).
		Update("head_of_department_id", nil).Error
}

func (r *DepartmentRepository) ReleaseHeadships(ctx context.Context, personID, keepDepartmentID int64) error {
	q := r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("head_of_department_id = ?", personID)
	if keepDepartmentID > 0 {
		q = q.Where("id <> ?", keepDepartmentID)
	}
	return q.Update("head_of_department_id", nil).Error
}
