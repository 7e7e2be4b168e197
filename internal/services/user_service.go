package services

import (
	"context"
	"fmt"

	"github.com/markdave123-py/csrdesk/internal/apperr"
	"github.com/markdave123-py/csrdesk/internal/core"
	"github.com/markdave123-py/csrdesk/internal/models"
)

type UserService struct {
	db core.UserStore
}

func NewUserService(db core.UserStore) *UserService {
	return &UserService{db: db}
}

// Authenticate loads the user behind a verified token subject. Unknown or
// inactive users are rejected with 401.
func (s *UserService) Authenticate(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized(fmt.Errorf("unknown user %s", userID))
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized(fmt.Errorf("user %s is inactive", userID))
	}
	return u, nil
}
