package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfbites/foodruns-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Username:  UsernameFromEmail(u.Email),
		Points:    u.Points,
		CreatedAt: u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
	}
}

// UsernameFromEmail derives the display handle from the local part of the email.
func UsernameFromEmail(email string) string {
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}
