package points

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/internal/users"
	"github.com/wolfbites/foodruns-backend/pkg/db"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
)

// Service defines the behavior needed by the points controller.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceResponse, error)
	Redeem(ctx context.Context, userID uuid.UUID) (*RedeemResponse, error)
}

type service struct {
	db *db.Client
}

// NewService constructs a points service backed by the shared DB client.
func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &service{db: client}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceResponse, error) {
	user, err := users.NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return &BalanceResponse{
		Points:      user.Points,
		PointsValue: Value(user.Points),
	}, nil
}

func (s *service) Redeem(ctx context.Context, userID uuid.UUID) (*RedeemResponse, error) {
	var resp *RedeemResponse
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)

		user, err := repo.FindByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		redeemable := Redeemable(user.Points)
		if redeemable < 10 {
			return pkgerrors.New(pkgerrors.CodeValidation, "not enough points")
		}

		if err := repo.AddPoints(ctx, user.ID, -redeemable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "debit points")
		}

		resp = &RedeemResponse{
			PointsRedeemed:  redeemable,
			ValueRedeemed:   Value(redeemable),
			RemainingPoints: user.Points - redeemable,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
