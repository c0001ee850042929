package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// admins first, then everyone alphabetically; "admin" sorts before "student"
// so ordering on the raw role column is enough.
var userListOrdering = []core.DBOrdering{
	{Field: "role", Ascending: true},
	{Field: "name", Ascending: true},
}

type userRow struct {
	ID                string       `db:"id"`
	Name              string       `db:"name"`
	Email             string       `db:"email"`
	Role              string       `db:"role"`
	AvatarURL         string       `db:"avatar_url"`
	LearningInterests string       `db:"learning_interests"`
	IsActive          bool         `db:"is_active"`
	PasswordHash      []byte       `db:"password_hash"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
	LastLogin         sql.NullTime `db:"last_login"`
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:                r.ID,
		Name:              r.Name,
		Email:             r.Email,
		Role:              r.Role,
		AvatarURL:         r.AvatarURL,
		LearningInterests: r.LearningInterests,
		IsActive:          r.IsActive,
		PasswordHash:      r.PasswordHash,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}
	return wrapErr(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS(SELECT 1 FROM "user" WHERE email = ?)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT EXISTS(SELECT 1 FROM "user" WHERE email = ? AND id NOT IN (?))`, email, ids)
		if err != nil {
			return wrapErr(err, "checking email uniqueness")
		}
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return wrapErr(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	const query = `
		INSERT INTO "user" (id, name, email, role, avatar_url, learning_interests, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.AvatarURL, usr.LearningInterests,
		usr.IsActive, usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, wrapErr(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	ordering := make([]string, 0, len(userListOrdering))
	for _, ord := range userListOrdering {
		ordering = append(ordering, ord.String())
	}
	query := `SELECT * FROM "user" ORDER BY ` + strings.Join(ordering, ", ")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, wrapErr(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var r userRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return r.user(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var r userRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return r.user(), nil
}

// UpdateUser only saves set fields; isActive is applied when non-nil.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	const query = `
		UPDATE "user"
		SET name               = COALESCE(NULLIF($2, ''), name),
		    email              = COALESCE(NULLIF($3, ''), email),
		    role               = COALESCE(NULLIF($4, ''), role),
		    avatar_url         = COALESCE(NULLIF($5, ''), avatar_url),
		    learning_interests = COALESCE(NULLIF($6, ''), learning_interests),
		    password_hash      = COALESCE($7, password_hash),
		    is_active          = COALESCE($8, is_active),
		    updated_at         = $9
		WHERE id = $1
		RETURNING *`
	var hash []byte
	if len(usr.PasswordHash) > 0 {
		hash = usr.PasswordHash
	}
	var r userRow
	err := repo.db.GetContext(ctx, &r, query,
		usr.ID, usr.Name, usr.Email, usr.Role, usr.AvatarURL, usr.LearningInterests, hash, isActive, usr.UpdatedAt.UTC())
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return r.user(), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	isActive := usr.IsActive
	return repo.UpdateUser(ctx, usr, &isActive)
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	var r userRow
	err := repo.db.GetContext(ctx, &r, `UPDATE "user" SET last_login = $2 WHERE id = $1 RETURNING *`, usr.ID, usr.LastLogin.UTC())
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "setting last login")
	}
	return r.user(), nil
}
