package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

// User is an identity row including its credential hash.
type User struct {
	model.Identity
	PasswordHash string
}

const userColumns = `id, full_name, email, password_hash, profile_pic, created_at`

// CreateUser inserts a new user and assigns its id and creation time.
func (db *DB) CreateUser(u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt = now.UTC().Truncate(time.Millisecond)
	_, err := db.Exec(`
		INSERT INTO users (id, full_name, email, password_hash, profile_pic, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.ProfilePic, now.UnixMilli(), now.UnixMilli())
	if isUniqueViolation(err) {
		return apperr.Auth("User already exists with this email.")
	}
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

// FindUserByEmail returns the user with the given email.
func (db *DB) FindUserByEmail(email string) (*User, error) {
	return db.scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// FindUserByID returns the user with the given id.
func (db *DB) FindUserByID(id string) (*User, error) {
	return db.scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (db *DB) scanUser(row *sql.Row) (*User, error) {
	var (
		u       User
		created int64
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.ProfilePic, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found.")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return &u, nil
}

// UpdateProfilePic sets the user's avatar URL.
func (db *DB) UpdateProfilePic(id, url string) error {
	res, err := db.Exec(`UPDATE users SET profile_pic = ?, updated_at = ? WHERE id = ?`,
		url, time.Now().UnixMilli(), id)
	if err != nil {
		return apperr.Storage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}

// ListUsers returns one page of identities in creation order, excluding the caller.
func (db *DB) ListUsers(page, pageSize int, exclude string) (*model.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE id != ?`, exclude).Scan(&total); err != nil {
		return nil, apperr.Storage(err)
	}

	rows, err := db.Query(`
		SELECT id, full_name, email, profile_pic, created_at
		FROM users
		WHERE id != ?
		ORDER BY created_at, rowid
		LIMIT ? OFFSET ?`, exclude, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer func() { _ = rows.Close() }()

	out := &model.UserPage{
		Data: []model.Identity{},
		Pagination: model.Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: model.TotalPages(total, pageSize),
		},
	}
	for rows.Next() {
		var (
			id      model.Identity
			created int64
		)
		if err := rows.Scan(&id.ID, &id.FullName, &id.Email, &id.ProfilePic, &created); err != nil {
			return nil, apperr.Storage(err)
		}
		id.CreatedAt = time.UnixMilli(created).UTC()
		out.Data = append(out.Data, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

// CountUsers returns the number of registered users.
func (db *DB) CountUsers() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, apperr.Storage(err)
	}
	return n, nil
}
