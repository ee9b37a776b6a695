package runs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	"github.com/wolfbites/foodruns-backend/pkg/enums"
)

// CreateRunRequest is the payload for announcing a new run.
type CreateRunRequest struct {
	Restaurant string `json:"restaurant" validate:"required,max=200"`
	DropPoint  string `json:"drop_point" validate:"required,max=200"`
	ETA        string `json:"eta" validate:"required,max=100"`
	Capacity   int    `json:"capacity" validate:"omitempty,min=1"`
}

// JoinRunRequest is the payload for placing an order on a run.
type JoinRunRequest struct {
	Items  string          `json:"items" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
	PIN    string          `json:"pin" validate:"omitempty,pin"`
}

// VerifyPinRequest carries the pickup code presented at delivery.
type VerifyPinRequest struct {
	PIN string `json:"pin" validate:"required,pin"`
}

// CreateRunDTO holds the data required by the repo to persist a new run.
type CreateRunDTO struct {
	RunnerID   uuid.UUID
	Restaurant string
	DropPoint  string
	ETA        string
	Capacity   int
}

func (c CreateRunDTO) ToModel() *models.Run {
	return &models.Run{
		RunnerID:   c.RunnerID,
		Restaurant: c.Restaurant,
		DropPoint:  c.DropPoint,
		ETA:        c.ETA,
		Capacity:   c.Capacity,
		Status:     enums.RunStatusActive,
	}
}

// CreateOrderDTO holds the data required by the repo to persist a new order.
type CreateOrderDTO struct {
	RunID  uuid.UUID
	UserID uuid.UUID
	Items  string
	Amount decimal.Decimal
	PIN    string
}

func (c CreateOrderDTO) ToModel() *models.Order {
	return &models.Order{
		RunID:  c.RunID,
		UserID: c.UserID,
		Items:  c.Items,
		Amount: c.Amount,
		Status: enums.OrderStatusPending,
		PIN:    c.PIN,
	}
}

// CreateRunResponse pairs the new run with its announcement copy.
type CreateRunResponse struct {
	Run          RunView `json:"run"`
	Announcement string  `json:"announcement"`
}

// CompleteRunResponse reports the points credited to the runner.
type CompleteRunResponse struct {
	PointsEarned int `json:"points_earned"`
}
