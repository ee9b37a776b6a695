package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/pkg/enums"
)

// Order is one participant's order inside a run. PIN is a 4-digit
// delivery code shared only with the order owner.
type Order struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RunID     uuid.UUID         `gorm:"column:run_id;type:uuid;not null;index:idx_orders_run_user"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_orders_run_user"`
	Items     string            `gorm:"column:items;type:text;not null"`
	Amount    decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PIN       string            `gorm:"column:pin;type:char(4);not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
