// Package users stores accounts keyed by email. Implementations exist for
// DynamoDB, PostgreSQL and process memory; all report a missing record as
// common.ErrorNotFound and a duplicate email as common.ErrorAlreadyExists.
package users

import (
	"context"

	"github.com/dmitrijs2005/userreg/internal/server/models"
)

type Repository interface {
	// Get returns the record for email or common.ErrorNotFound.
	Get(ctx context.Context, email string) (*models.User, error)
	// Create stores user only if no record with the same email exists.
	Create(ctx context.Context, user *models.User) error
	// Delete removes the record for email. Deleting an absent key succeeds.
	Delete(ctx context.Context, email string) error
}
