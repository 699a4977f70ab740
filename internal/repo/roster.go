package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/coursevault/internal/models"
)

// RosterRepo reads the allow-listed student roster. The roster is seeded
// out of band; this process never writes it.
type RosterRepo struct {
	DB *sql.DB
}

func NewRosterRepo(db *sql.DB) *RosterRepo {
	return &RosterRepo{DB: db}
}

// Lookup returns the roster entry for a roll number, or nil if absent.
func (r *RosterRepo) Lookup(ctx context.Context, rollNumber string) (*models.RosterEntry, error) {
	e := &models.RosterEntry{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT roll_number, name, email FROM allowed_students WHERE roll_number = $1`,
		rollNumber,
	).Scan(&e.RollNumber, &e.Name, &e.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// EmailAllowed reports whether the email appears on the roster.
func (r *RosterRepo) EmailAllowed(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM allowed_students WHERE email = $1`, email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
