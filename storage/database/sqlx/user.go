package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/hekima/shindano/core/user"
)

type userRow struct {
	ID             int       `db:"id"`
	Username       string    `db:"username"`
	Email          string    `db:"email"`
	Major          string    `db:"major"`
	School         string    `db:"school"`
	AdminType      string    `db:"admin_type"`
	IsDisabled     bool      `db:"is_disabled"`
	HasEmailAuth   bool      `db:"has_email_auth"`
	EmailAuthToken string    `db:"email_auth_token"`
	PasswordHash   []byte    `db:"password_hash"`
	CreateTime     time.Time `db:"create_time"`
	LastLogin      time.Time `db:"last_login"`
}

func (r userRow) model() user.User {
	return user.User{
		ID:             r.ID,
		Username:       r.Username,
		Email:          r.Email,
		Major:          r.Major,
		School:         r.School,
		AdminType:      r.AdminType,
		IsDisabled:     r.IsDisabled,
		HasEmailAuth:   r.HasEmailAuth,
		EmailAuthToken: r.EmailAuthToken,
		PasswordHash:   r.PasswordHash,
		CreateTime:     r.CreateTime,
		LastLogin:      r.LastLogin,
	}
}

const userColumns = `id, username, email, major, school, admin_type, is_disabled,
	has_email_auth, email_auth_token, password_hash, create_time, last_login`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" to user.ErrNotFound.
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
		INSERT INTO "user" (username, email, major, school, admin_type, is_disabled,
		                    has_email_auth, email_auth_token, password_hash, create_time, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q,
		usr.Username, usr.Email, usr.Major, usr.School, usr.AdminType, usr.IsDisabled,
		usr.HasEmailAuth, usr.EmailAuthToken, usr.PasswordHash,
		usr.CreateTime.UTC(), usr.LastLogin.UTC(),
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return row.model(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1", username)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo userRepository) GetUserByAuthToken(ctx context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, "email_auth_token = $1", token)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `
		UPDATE "user"
		SET username = $1, email = $2, major = $3, school = $4, admin_type = $5,
		    is_disabled = $6, has_email_auth = $7, email_auth_token = $8,
		    password_hash = $9, last_login = $10
		WHERE id = $11`
	res, err := repo.db.ExecContext(ctx, q,
		usr.Username, usr.Email, usr.Major, usr.School, usr.AdminType,
		usr.IsDisabled, usr.HasEmailAuth, usr.EmailAuthToken,
		usr.PasswordHash, usr.LastLogin.UTC(), usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
