package runs

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wolfbites/foodruns-backend/internal/users"
	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	"github.com/wolfbites/foodruns-backend/pkg/enums"
)

// RunView is the base projection shared by every run listing.
type RunView struct {
	ID             uuid.UUID       `json:"id"`
	RunnerID       uuid.UUID       `json:"runner_id"`
	Runner         string          `json:"runner"`
	Restaurant     string          `json:"restaurant"`
	DropPoint      string          `json:"drop_point"`
	ETA            string          `json:"eta"`
	Capacity       int             `json:"capacity"`
	Status         enums.RunStatus `json:"status"`
	SeatsRemaining int             `json:"seats_remaining"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrderSummaryView is the PIN-less order shape shown to the run's runner.
type OrderSummaryView struct {
	ID     uuid.UUID         `json:"id"`
	UserID uuid.UUID         `json:"user_id"`
	User   string            `json:"user"`
	Items  string            `json:"items"`
	Amount decimal.Decimal   `json:"amount"`
	Status enums.OrderStatus `json:"status"`
}

// MyOrderView is the joiner-scoped order shape and the only projection carrying a PIN.
type MyOrderView struct {
	ID     uuid.UUID         `json:"id"`
	RunID  uuid.UUID         `json:"run_id"`
	Items  string            `json:"items"`
	Amount decimal.Decimal   `json:"amount"`
	Status enums.OrderStatus `json:"status"`
	PIN    string            `json:"pin"`
}

// RunDetailView is the runner's view of a run with its orders.
type RunDetailView struct {
	RunView
	Orders []OrderSummaryView `json:"orders"`
}

// RunWithMyOrderView is the joiner's view of a run with their own order.
type RunWithMyOrderView struct {
	RunView
	MyOrder *MyOrderView `json:"my_order"`
}

// NewRunView projects a run with a resolved runner handle and live seat count.
func NewRunView(run *models.Run, runnerEmail string, nonCancelledOrders int) RunView {
	return RunView{
		ID:             run.ID,
		RunnerID:       run.RunnerID,
		Runner:         users.UsernameFromEmail(runnerEmail),
		Restaurant:     run.Restaurant,
		DropPoint:      run.DropPoint,
		ETA:            run.ETA,
		Capacity:       run.Capacity,
		Status:         run.Status,
		SeatsRemaining: seatsRemaining(run.Capacity, nonCancelledOrders),
		CreatedAt:      run.CreatedAt,
	}
}

// NewOrderSummaryView projects an order without its PIN.
func NewOrderSummaryView(order *models.Order, userEmail string) OrderSummaryView {
	return OrderSummaryView{
		ID:     order.ID,
		UserID: order.UserID,
		User:   users.UsernameFromEmail(userEmail),
		Items:  order.Items,
		Amount: order.Amount,
		Status: order.Status,
	}
}

// NewMyOrderView projects the requesting joiner's own order, PIN included.
func NewMyOrderView(order *models.Order) *MyOrderView {
	if order == nil {
		return nil
	}
	return &MyOrderView{
		ID:     order.ID,
		RunID:  order.RunID,
		Items:  order.Items,
		Amount: order.Amount,
		Status: order.Status,
		PIN:    order.PIN,
	}
}

func seatsRemaining(capacity, nonCancelled int) int {
	remaining := capacity - nonCancelled
	if remaining < 0 {
		return 0
	}
	return remaining
}

func countNonCancelled(orders []models.Order) int {
	n := 0
	for i := range orders {
		if orders[i].Status != enums.OrderStatusCancelled {
			n++
		}
	}
	return n
}
