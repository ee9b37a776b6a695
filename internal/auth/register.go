package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/internal/users"
	"github.com/wolfbites/foodruns-backend/pkg/config"
	"github.com/wolfbites/foodruns-backend/pkg/db"
	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
	"github.com/wolfbites/foodruns-backend/pkg/security"
)

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	SessionManager sessionManager
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
	AuthConfig     config.AuthConfig
}

type registerService struct {
	db          *db.Client
	session     sessionManager
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	authCfg     config.AuthConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager required")
	}
	return &registerService{
		db:          params.DB,
		session:     params.SessionManager,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
		authCfg:     params.AuthConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := validateEmailDomain(email, s.authCfg.AllowedEmailDomain); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "users_email_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issueTokens(ctx, s.session, s.jwtCfg, user)
}
