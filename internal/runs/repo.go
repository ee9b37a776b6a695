package runs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	"github.com/wolfbites/foodruns-backend/pkg/enums"
)

// Repository exposes run and order persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a runs repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new run and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateRunDTO) (*models.Run, error) {
	run := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// FindByID loads a run by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	var run models.Run
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// FindByIDForUpdate loads a run under a row lock so capacity checks and the
// subsequent insert act as one atomic unit. sqlite has no row locks, so the
// clause is only applied on postgres.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var run models.Run
	if err := q.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// UpdateStatus transitions a run to the provided status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RunStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// ListAll returns every run, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Run, error) {
	var runs []models.Run
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListByRunner returns the runner's runs, active or historical.
func (r *Repository) ListByRunner(ctx context.Context, runnerID uuid.UUID, active bool) ([]models.Run, error) {
	q := r.db.WithContext(ctx).Where("runner_id = ?", runnerID)
	if active {
		q = q.Where("status = ?", enums.RunStatusActive)
	} else {
		q = q.Where("status <> ?", enums.RunStatusActive)
	}
	var runs []models.Run
	if err := q.Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListJoinedByUser returns runs on which the user holds a non-cancelled order.
func (r *Repository) ListJoinedByUser(ctx context.Context, userID uuid.UUID, active bool) ([]models.Run, error) {
	q := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.run_id = runs.id").
		Where("orders.user_id = ? AND orders.status <> ?", userID, enums.OrderStatusCancelled)
	if active {
		q = q.Where("runs.status = ?", enums.RunStatusActive)
	} else {
		q = q.Where("runs.status <> ?", enums.RunStatusActive)
	}
	var runs []models.Run
	if err := q.Order("runs.created_at DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListActiveNotOwned returns active runs owned by someone else. Seat
// availability is filtered by the caller once counts are resolved.
func (r *Repository) ListActiveNotOwned(ctx context.Context, userID uuid.UUID) ([]models.Run, error) {
	var runs []models.Run
	err := r.db.WithContext(ctx).
		Where("status = ? AND runner_id <> ?", enums.RunStatusActive, userID).
		Order("created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// CreateOrder inserts a new order and returns the persisted model.
func (r *Repository) CreateOrder(ctx context.Context, dto CreateOrderDTO) (*models.Order, error) {
	order := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindOrderInRun loads an order that belongs to the named run.
func (r *Repository) FindOrderInRun(ctx context.Context, runID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		First(&order, "id = ? AND run_id = ?", orderID, runID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindActiveOrderByRunAndUser returns the user's non-cancelled order on the run.
func (r *Repository) FindActiveOrderByRunAndUser(ctx context.Context, runID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("run_id = ? AND user_id = ? AND status <> ?", runID, userID, enums.OrderStatusCancelled).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CountNonCancelledOrders counts the seats consumed on a run.
func (r *Repository) CountNonCancelledOrders(ctx context.Context, runID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("run_id = ? AND status <> ?", runID, enums.OrderStatusCancelled).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ListOrdersByRun returns all orders on a run, oldest first.
func (r *Repository) ListOrdersByRun(ctx context.Context, runID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrdersByRunIDs returns orders for a batch of runs keyed by run.
func (r *Repository) ListOrdersByRunIDs(ctx context.Context, runIDs []uuid.UUID) (map[uuid.UUID][]models.Order, error) {
	grouped := make(map[uuid.UUID][]models.Order, len(runIDs))
	if len(runIDs) == 0 {
		return grouped, nil
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("run_id IN ?", runIDs).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		grouped[order.RunID] = append(grouped[order.RunID], order)
	}
	return grouped, nil
}

// UpdateOrderStatus transitions an order to the provided status.
func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("status", status).Error
}

// UserEmails resolves display emails for a batch of user IDs.
func (r *Repository) UserEmails(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	emails := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return emails, nil
	}
	var rows []models.User
	err := r.db.WithContext(ctx).
		Select("id", "email").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		emails[row.ID] = row.Email
	}
	return emails, nil
}
