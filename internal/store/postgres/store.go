package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	db_models "chatstream-backend/internal/models"
	"chatstream-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetUserByUsername retrieves a user by their username.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*db_models.User, error) {
	query := `
		SELECT id, username, hashed_password, created_at
		FROM users
		WHERE username = $1`

	user := &db_models.User{}
	err := s.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.HashedPassword,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByUsername: Failed to query/scan user %s: %v", username, err)
		return nil, fmt.Errorf("database error fetching user by username: %w", err)
	}

	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	log.Printf("[PostgresStore] CreateUser called for: %s (UserID: %s)", user.Username, user.ID)
	query := `
		INSERT INTO users (id, username, hashed_password)
		VALUES ($1, $2, $3)`
	// created_at has a database default (NOW())

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.HashedPassword,
	)

	if err != nil {
		// Check for specific constraint errors, e.g., duplicate username
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is unique_violation
			log.Printf("ERROR [PostgresStore] CreateUser: PostgreSQL error executing insert for %s: Code=%s, Message=%s", user.Username, pgErr.Code, pgErr.Message)
		} else {
			log.Printf("ERROR [PostgresStore] CreateUser: Failed to execute insert for %s: %v", user.Username, err)
		}
		return fmt.Errorf("database error creating user: %w", err)
	}

	return nil
}
