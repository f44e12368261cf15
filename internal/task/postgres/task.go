package postgres

import (
	"context"
	"errors"
	"strings"

	departmentDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/department"
	personDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/person"
	taskDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/task"
	"github.com/frahmantamala/personnel-suite/internal/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.RepositoryAPI {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Assignee").
		Preload("CreatedBy").
		Preload("Department")
}

func (r *TaskRepository) Create(ctx context.Context, t *taskDatamodel.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*taskDatamodel.Task, error) {
	var t taskDatamodel.Task
	if err := r.withRelations(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&taskDatamodel.Task{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *TaskRepository) List(ctx context.Context) ([]*taskDatamodel.Task, error) {
	var tasks []*taskDatamodel.Task
	err := r.withRelations(ctx).Order("created_at DESC, id DESC").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListAssignedTo(ctx context.Context, personID int64) ([]*taskDatamodel.Task, error) {
	var tasks []*taskDatamodel.Task
	err := r.withRelations(ctx).
		Where("assignee_id = ?", personID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListCreatedBy(ctx context.Context, personID int64) ([]*taskDatamodel.Task, error) {
	var tasks []*taskDatamodel.Task
	err := r.withRelations(ctx).
		Where("created_by_id = ?", personID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) GetPerson(ctx context.Context, id int64) (*personDatamodel.Person, error) {
	var p personDatamodel.Person
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *TaskRepository) GetPersonByEmail(ctx context.Context, email string) (*personDatamodel.Person, error) {
	var p personDatamodel.Person
	err := r.db.WithContext(ctx).
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

func (r *TaskRepository) GetDepartment(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var d departmentDatamodel.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
