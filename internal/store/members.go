package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/yerin/go-cart-store/internal/database"
	"github.com/yerin/go-cart-store/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func CreateMember(ctx context.Context, db *sql.DB, email, password string, point int64, bcryptCost int) (*models.Member, error) {
	if point < 0 {
		return nil, fmt.Errorf("create member: starting point must not be negative")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	member := &models.Member{}

	query := `
		INSERT INTO members (email, password, point, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, email, point, created_at, updated_at`

	err = db.QueryRowContext(ctx, query, email, string(hash), point).Scan(
		&member.ID,
		&member.Email,
		&member.Point,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	return member, nil
}

func GetMember(ctx context.Context, db *sql.DB, id int64) (*models.Member, error) {
	member := &models.Member{}

	query := `
		SELECT id, email, point, created_at, updated_at
		FROM members
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&member.ID,
		&member.Email,
		&member.Point,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}

	return member, nil
}

// GetMemberByEmail includes the stored password hash so the HTTP layer can
// verify Basic auth credentials.
func GetMemberByEmail(ctx context.Context, db *sql.DB, email string) (*models.Member, error) {
	member := &models.Member{}

	query := `
		SELECT id, email, password, point, created_at, updated_at
		FROM members
		WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&member.ID,
		&member.Email,
		&member.Password,
		&member.Point,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by email: %w", err)
	}

	return member, nil
}

func VerifyMemberPassword(member *models.Member, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(password)) == nil
}

func ListMembers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT id, email, point, created_at, updated_at
		FROM members
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var member models.Member
		err := rows.Scan(
			&member.ID,
			&member.Email,
			&member.Point,
			&member.CreatedAt,
			&member.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(members, total, page, pageSize), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
