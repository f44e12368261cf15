package title

import (
	"time"

	titleDatamodel "github.com/frahmantamala/personnel-suite/internal/core/datamodel/title"
)

type DepartmentRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Title struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Department *DepartmentRef `json:"department"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func FromDataModel(t *titleDatamodel.Title) *Title {
	out := &Title{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Department != nil && t.DepartmentID != nil {
		out.Department = &DepartmentRef{ID: t.Department.ID, Name: t.Department.Name, Color: t.Department.Color}
	}
	return out
}

func FromDataModelSlice(titles []*titleDatamodel.Title) []*Title {
	result := make([]*Title, len(titles))
	for i, t := range titles {
		result[i] = FromDataModel(t)
	}
	return result
}
