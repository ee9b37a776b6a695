package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/pkg/enums"
)

// Run represents a single announced group food run owned by a runner.
type Run struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RunnerID   uuid.UUID       `gorm:"column:runner_id;type:uuid;not null;index"`
	Restaurant string          `gorm:"column:restaurant;type:text;not null"`
	DropPoint  string          `gorm:"column:drop_point;type:text;not null"`
	ETA        string          `gorm:"column:eta;type:text;not null"`
	Capacity   int             `gorm:"column:capacity;not null;default:5"`
	Status     enums.RunStatus `gorm:"column:status;type:text;not null;default:'active';index"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Run) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
