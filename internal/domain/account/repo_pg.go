package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/db"
)

const usernameConstraint = "users_username_key"

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

const userCols = `id, username, email, phone, first_name, last_name, date_of_birth,
	gender, role, password_hash, date_joined`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Phone, &u.FirstName, &u.LastName,
		&u.DateOfBirth, &u.Gender, &u.Role, &u.PasswordHash, &u.DateJoined)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (username, email, phone, first_name, last_name, date_of_birth, gender, role, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, date_joined`,
		u.Username, u.Email, u.Phone, u.FirstName, u.LastName, u.DateOfBirth, u.Gender, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.DateJoined)
	if db.IsUniqueViolation(err, usernameConstraint) {
		return ErrUsernameTaken
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE users SET username=$2, email=$3, phone=$4, first_name=$5, last_name=$6,
			date_of_birth=$7, gender=$8
		WHERE id = $1`,
		u.ID, u.Username, u.Email, u.Phone, u.FirstName, u.LastName, u.DateOfBirth, u.Gender)
	if db.IsUniqueViolation(err, usernameConstraint) {
		return ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", u.ID, apperr.ErrNotFound)
	}
	return nil
}
