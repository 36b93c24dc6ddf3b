package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, is_active, is_staff, is_superuser, date_joined, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an identity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row interface{ Scan(dest ...any) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &u.UpdatedAt)
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("user", id.String())
		}
		return nil, models.Unavailable("get user", err)
	}
	return &u, nil
}

// GetByUsername returns a user by handle.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username), &u)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, models.NewNotFoundError("user", username)
		}
		return nil, models.Unavailable("get user", err)
	}
	return &u, nil
}

// GetOrCreate returns the user with the given handle, creating it with defaults when absent.
// created reports whether this call inserted the row.
func (r *Repository) GetOrCreate(ctx context.Context, username string, defaults models.UserDefaults) (*models.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, models.NewValidationError("username", "is required")
	}
	const q = `INSERT INTO users (username, email, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
		RETURNING ` + userColumns
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, q, username, defaults.Email, defaults.FirstName, defaults.LastName), &u)
	if err == nil {
		return &u, true, nil
	}
	if !database.IsNoRows(err) {
		return nil, false, models.Unavailable("create user", err)
	}
	existing, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Create inserts a user and fills in its generated columns. An empty password
// leaves the account without a usable password.
func (r *Repository) Create(ctx context.Context, u *models.User, password string) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return models.NewValidationError("username", "is required")
	}
	hash := ""
	if password != "" {
		var err error
		if hash, err = HashPassword(password); err != nil {
			return err
		}
	}
	const q = `INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	err := scanUser(r.pool.QueryRow(ctx, q, u.Username, u.Email, hash, u.FirstName, u.LastName), u)
	if err != nil {
		if database.IsUniqueViolation(err, "users_username_key") {
			return models.NewValidationError("username", "a user with that username already exists")
		}
		return models.Unavailable("create user", err)
	}
	return nil
}

// Update stores the user's handle, email and names.
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return models.NewValidationError("username", "is required")
	}
	const q = `UPDATE users SET username = $2, email = $3, first_name = $4, last_name = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	err := scanUser(r.pool.QueryRow(ctx, q, u.ID, u.Username, u.Email, u.FirstName, u.LastName), u)
	if err != nil {
		if database.IsNoRows(err) {
			return models.NewNotFoundError("user", u.ID.String())
		}
		if database.IsUniqueViolation(err, "users_username_key") {
			return models.NewValidationError("username", "a user with that username already exists")
		}
		return models.Unavailable("update user", err)
	}
	return nil
}

// SetPassword hashes and stores a new password.
func (r *Repository) SetPassword(ctx context.Context, id uuid.UUID, plain string) error {
	hash, err := HashPassword(plain)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return models.Unavailable("set password", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("user", id.String())
	}
	return nil
}

// List returns all users ordered by username.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, models.Unavailable("list users", err)
	}
	defer rows.Close()
	list := []models.UserPublic{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, models.Unavailable("list users", err)
		}
		list = append(list, u.ToPublic())
	}
	if err := rows.Err(); err != nil {
		return nil, models.Unavailable("list users", err)
	}
	return list, nil
}

// Delete removes a user. Profile, memberships and registrations cascade;
// activities they led keep existing with no responsible user.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return models.Unavailable("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("user", id.String())
	}
	return nil
}
