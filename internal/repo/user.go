package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/coursevault/internal/models"
)

// UserRepo persists registered users.
type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Create inserts a user. A unique violation on username or email surfaces
// as a pq error the caller can inspect.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash, role string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, username, email, password_hash, role`,
		username, email, passwordHash, role,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername returns a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EmailRegistered reports whether a user with this email already exists.
func (r *UserRepo) EmailRegistered(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = $1`, email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
