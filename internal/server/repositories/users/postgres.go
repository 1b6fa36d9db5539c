package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/dbx"
	"github.com/dmitrijs2005/userreg/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	props, err := json.Marshal(user.Properties)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}

	query :=
		`INSERT INTO users (email, user_id, username, password_hash, properties, created_at, modified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (email) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.UserID, user.Username, user.PasswordHash, props, user.CreatedAt, user.ModifiedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorAlreadyExists
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT email, user_id, username, password_hash, properties, created_at, modified_at FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	var props []byte
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.Email, &user.UserID, &user.Username, &user.PasswordHash, &props, &user.CreatedAt, &user.ModifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := json.Unmarshal(props, &user.Properties); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email string) error {
	query := `DELETE FROM users WHERE email = $1`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
