package postgres

import (
	"context"
	"errors"
	"strings"

	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
	"github.com/frahmantamala/personnel-suite/internal/title"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) title.RepositoryAPI {
	return &TitleRepository{db: db}
}

func (r *TitleRepository) Transaction(ctx context.Context, fn func(repo title.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TitleRepository{db: tx})
	})
}

func (r *TitleRepository) List(ctx context.Context) ([]*titleDatamodel.Title, error) {
	var titles []*titleDatamodel.Title
	err := r.db.WithContext(ctx).Preload("Department").Order("name ASC").Find(&titles).Error
	return titles, err
}

func (r *TitleRepository) ListByDepartment(ctx context.Context, departmentID int64) ([]*titleDatamodel.Title, error) {
	var titles []*titleDatamodel.Title
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("department_id = ?", departmentID).
		Order("name ASC").
		Find(&titles).Error
	return titles, err
}

func (r *TitleRepository) GetByID(ctx context.Context, id int64) (*titleDatamodel.Title, error) {
	var t titleDatamodel.Title
	if err := r.db.WithContext(ctx).Preload("Department").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TitleRepository) GetByName(ctx context.Context, name string) (*titleDatamodel.Title, error) {
	var t titleDatamodel.Title
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TitleRepository) Create(ctx context.Context, t *titleDatamodel.Title) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *TitleRepository) Update(ctx context.Context, t *titleDatamodel.Title) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error
}

func (r *TitleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&titleDatamodel.Title{}, id).Error
}

func (r *TitleRepository) GetDepartment(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *TitleRepository) UnassignTitle(ctx context.Context, titleID int64) error {
	return r.db.WithContext(ctx).
		Model(&personDatamodel.Person{}).
		Where("title_id = ?", titleID).
		Update("title_id", nil).Error
}

func (r *TitleRepository) ClearHead(ctx context.Context, departmentID int64) error {
	return r.db.WithContext(ctx).
		Model(&departmentDatamodel.Department{}).
		Where("id = ?", departmentID).
		Update("head_of_department_id", nil).Error
}
