package runs

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/internal/announce"
	"github.com/wolfbites/foodruns-backend/internal/points"
	"github.com/wolfbites/foodruns-backend/internal/users"
	"github.com/wolfbites/foodruns-backend/pkg/config"
	"github.com/wolfbites/foodruns-backend/pkg/db"
	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	"github.com/wolfbites/foodruns-backend/pkg/enums"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
)

// Service defines the run lifecycle behavior needed by the runs controller.
type Service interface {
	Create(ctx context.Context, runnerID uuid.UUID, req CreateRunRequest) (*CreateRunResponse, error)
	List(ctx context.Context) ([]RunView, error)
	ListAvailable(ctx context.Context, userID uuid.UUID) ([]RunView, error)
	ListMine(ctx context.Context, userID uuid.UUID, history bool) ([]RunDetailView, error)
	ListJoined(ctx context.Context, userID uuid.UUID, history bool) ([]RunWithMyOrderView, error)
	Detail(ctx context.Context, runID, callerID uuid.UUID) (*RunAccessView, error)
	Join(ctx context.Context, runID, userID uuid.UUID, req JoinRunRequest) (*MyOrderView, error)
	VerifyPin(ctx context.Context, runID, orderID, runnerID uuid.UUID, pin string) error
	CancelMyOrder(ctx context.Context, runID, userID uuid.UUID) error
	RemoveOrder(ctx context.Context, runID, orderID, runnerID uuid.UUID) error
	Complete(ctx context.Context, runID, runnerID uuid.UUID) (*CompleteRunResponse, error)
	Cancel(ctx context.Context, runID, runnerID uuid.UUID) error
}

// RunAccessView is the role-dependent detail shape: runners get orders,
// joiners get my_order, anyone else is rejected before projection.
type RunAccessView struct {
	RunView
	Orders  []OrderSummaryView `json:"orders,omitempty"`
	MyOrder *MyOrderView       `json:"my_order,omitempty"`
}

type service struct {
	db        *db.Client
	cfg       config.RunsConfig
	announcer *announce.Announcer
	logg      *logger.Logger
}

// ServiceParams bundles the dependencies required to build a runs service.
type ServiceParams struct {
	DB        *db.Client
	Config    config.RunsConfig
	Announcer *announce.Announcer
	Logger    *logger.Logger
}

// NewService constructs a run lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &service{
		db:        params.DB,
		cfg:       params.Config,
		announcer: params.Announcer,
		logg:      params.Logger,
	}, nil
}

func (s *service) repo() *Repository {
	return NewRepository(s.db.DB())
}

func (s *service) Create(ctx context.Context, runnerID uuid.UUID, req CreateRunRequest) (*CreateRunResponse, error) {
	capacity := req.Capacity
	if capacity == 0 {
		capacity = s.cfg.DefaultCapacity
	}
	if capacity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity must be a positive integer")
	}

	repo := s.repo()
	run, err := repo.Create(ctx, CreateRunDTO{
		RunnerID:   runnerID,
		Restaurant: req.Restaurant,
		DropPoint:  req.DropPoint,
		ETA:        req.ETA,
		Capacity:   capacity,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create run")
	}

	emails, err := repo.UserEmails(ctx, []uuid.UUID{runnerID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve runner")
	}

	announcement := s.announcer.Announce(ctx, announce.RunDetails{
		Restaurant: run.Restaurant,
		DropPoint:  run.DropPoint,
		ETA:        run.ETA,
		Capacity:   run.Capacity,
	})

	if s.logg != nil {
		s.logg.Info(s.logg.WithRunID(ctx, run.ID.String()), "run created")
	}

	return &CreateRunResponse{
		Run:          NewRunView(run, emails[runnerID], 0),
		Announcement: announcement,
	}, nil
}

func (s *service) List(ctx context.Context) ([]RunView, error) {
	repo := s.repo()
	runs, err := repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list runs")
	}
	return s.projectRunViews(ctx, repo, runs, nil)
}

func (s *service) ListAvailable(ctx context.Context, userID uuid.UUID) ([]RunView, error) {
	repo := s.repo()
	runs, err := repo.ListActiveNotOwned(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list available runs")
	}
	keepOpen := func(view RunView) bool { return view.SeatsRemaining > 0 }
	return s.projectRunViews(ctx, repo, runs, keepOpen)
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, history bool) ([]RunDetailView, error) {
	repo := s.repo()
	runs, err := repo.ListByRunner(ctx, userID, !history)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list my runs")
	}

	ordersByRun, emails, err := s.resolveRunMeta(ctx, repo, runs)
	if err != nil {
		return nil, err
	}

	views := make([]RunDetailView, 0, len(runs))
	for i := range runs {
		run := &runs[i]
		orders := ordersByRun[run.ID]
		summaries := make([]OrderSummaryView, 0, len(orders))
		for j := range orders {
			summaries = append(summaries, NewOrderSummaryView(&orders[j], emails[orders[j].UserID]))
		}
		views = append(views, RunDetailView{
			RunView: NewRunView(run, emails[run.RunnerID], countNonCancelled(orders)),
			Orders:  summaries,
		})
	}
	return views, nil
}

func (s *service) ListJoined(ctx context.Context, userID uuid.UUID, history bool) ([]RunWithMyOrderView, error) {
	repo := s.repo()
	runs, err := repo.ListJoinedByUser(ctx, userID, !history)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list joined runs")
	}

	ordersByRun, emails, err := s.resolveRunMeta(ctx, repo, runs)
	if err != nil {
		return nil, err
	}

	views := make([]RunWithMyOrderView, 0, len(runs))
	for i := range runs {
		run := &runs[i]
		orders := ordersByRun[run.ID]
		var mine *models.Order
		for j := range orders {
			if orders[j].UserID == userID && orders[j].Status != enums.OrderStatusCancelled {
				mine = &orders[j]
				break
			}
		}
		views = append(views, RunWithMyOrderView{
			RunView: NewRunView(run, emails[run.RunnerID], countNonCancelled(orders)),
			MyOrder: NewMyOrderView(mine),
		})
	}
	return views, nil
}

func (s *service) Detail(ctx context.Context, runID, callerID uuid.UUID) (*RunAccessView, error) {
	repo := s.repo()
	run, err := repo.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load run")
	}

	orders, err := repo.ListOrdersByRun(ctx, runID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
	}

	userIDs := []uuid.UUID{run.RunnerID}
	for i := range orders {
		userIDs = append(userIDs, orders[i].UserID)
	}
	emails, err := repo.UserEmails(ctx, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve users")
	}

	base := NewRunView(run, emails[run.RunnerID], countNonCancelled(orders))

	if run.RunnerID == callerID {
		summaries := make([]OrderSummaryView, 0, len(orders))
		for i := range orders {
			summaries = append(summaries, NewOrderSummaryView(&orders[i], emails[orders[i].UserID]))
		}
		return &RunAccessView{RunView: base, Orders: summaries}, nil
	}

	for i := range orders {
		if orders[i].UserID == callerID && orders[i].Status != enums.OrderStatusCancelled {
			return &RunAccessView{RunView: base, MyOrder: NewMyOrderView(&orders[i])}, nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant of this run")
}

func (s *service) Join(ctx context.Context, runID, userID uuid.UUID, req JoinRunRequest) (*MyOrderView, error) {
	var view *MyOrderView
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		run, err := repo.FindByIDForUpdate(ctx, runID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load run")
		}
		if run.Status != enums.RunStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run is not active")
		}
		if run.RunnerID == userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "runner cannot join their own run")
		}

		if _, err := repo.FindActiveOrderByRunAndUser(ctx, runID, userID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "already joined this run")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing order")
		}

		taken, err := repo.CountNonCancelledOrders(ctx, runID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
		}
		if taken >= run.Capacity {
			return pkgerrors.New(pkgerrors.CodeConflict, "run is full")
		}

		if !req.Amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
		}

		pin := req.PIN
		if pin == "" {
			pin, err = GeneratePIN()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate pin")
			}
		} else if !ValidPIN(pin) {
			return pkgerrors.New(pkgerrors.CodeValidation, "pin must be a 4 digit code")
		}

		order, err := repo.CreateOrder(ctx, CreateOrderDTO{
			RunID:  runID,
			UserID: userID,
			Items:  req.Items,
			Amount: req.Amount,
			PIN:    pin,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		view = NewMyOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) VerifyPin(ctx context.Context, runID, orderID, runnerID uuid.UUID, pin string) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		run, err := repo.FindByID(ctx, runID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load run")
		}
		if run.RunnerID != runnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the runner can verify pickups")
		}

		order, err := repo.FindOrderInRun(ctx, runID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found on this run")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
		}
		if order.PIN == "" {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no pin")
		}

		if len(pin) != len(order.PIN) || subtle.ConstantTimeCompare([]byte(pin), []byte(order.PIN)) != 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "incorrect PIN")
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusDelivered); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark delivered")
		}
		return nil
	})
}

func (s *service) CancelMyOrder(ctx context.Context, runID, userID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		order, err := repo.FindActiveOrderByRunAndUser(ctx, runID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active order on this run")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		return nil
	})
}

func (s *service) RemoveOrder(ctx context.Context, runID, orderID, runnerID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		run, err := repo.FindByID(ctx, runID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load run")
		}
		if run.RunnerID != runnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the runner can remove orders")
		}
		if run.Status != enums.RunStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run is not active")
		}

		order, err := repo.FindOrderInRun(ctx, runID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found on this run")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found on this run")
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove order")
		}
		return nil
	})
}

func (s *service) Complete(ctx context.Context, runID, runnerID uuid.UUID) (*CompleteRunResponse, error) {
	var resp *CompleteRunResponse
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		run, err := repo.FindByIDForUpdate(ctx, runID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load run")
		}
		if run.RunnerID != runnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the runner can complete the run")
		}
		if run.Status != enums.RunStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run is not active")
		}

		orders, err := repo.ListOrdersByRun(ctx, runID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
		}

		total := decimal.Zero
		for i := range orders {
			if orders[i].Status == enums.OrderStatusCancelled {
				continue
			}
			total = total.Add(orders[i].Amount)
		}
		earned := points.Earned(total)

		if err := repo.UpdateStatus(ctx, runID, enums.RunStatusCompleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete run")
		}
		if earned > 0 {
			if err := users.NewRepository(tx).AddPoints(ctx, runnerID, earned); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credit points")
			}
		}

		resp = &CompleteRunResponse{PointsEarned: earned}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"run_id": runID.String(), "points_earned": resp.PointsEarned})
		s.logg.Info(ctx, "run completed")
	}
	return resp, nil
}

func (s *service) Cancel(ctx context.Context, runID, runnerID uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		run, err := repo.FindByIDForUpdate(ctx, runID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "run not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load run")
		}
		if run.RunnerID != runnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the runner can cancel the run")
		}
		if run.Status != enums.RunStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "run is not active")
		}

		return repo.UpdateStatus(ctx, runID, enums.RunStatusCancelled)
	})
}

func (s *service) projectRunViews(ctx context.Context, repo *Repository, runs []models.Run, keep func(RunView) bool) ([]RunView, error) {
	ordersByRun, emails, err := s.resolveRunMeta(ctx, repo, runs)
	if err != nil {
		return nil, err
	}

	views := make([]RunView, 0, len(runs))
	for i := range runs {
		run := &runs[i]
		view := NewRunView(run, emails[run.RunnerID], countNonCancelled(ordersByRun[run.ID]))
		if keep != nil && !keep(view) {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) resolveRunMeta(ctx context.Context, repo *Repository, runs []models.Run) (map[uuid.UUID][]models.Order, map[uuid.UUID]string, error) {
	runIDs := make([]uuid.UUID, 0, len(runs))
	userIDs := make([]uuid.UUID, 0, len(runs))
	for i := range runs {
		runIDs = append(runIDs, runs[i].ID)
		userIDs = append(userIDs, runs[i].RunnerID)
	}

	ordersByRun, err := repo.ListOrdersByRunIDs(ctx, runIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
	}
	for _, orders := range ordersByRun {
		for i := range orders {
			userIDs = append(userIDs, orders[i].UserID)
		}
	}

	emails, err := repo.UserEmails(ctx, userIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve users")
	}
	return ordersByRun, emails, nil
}
