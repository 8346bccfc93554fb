package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// InsertUser registers a new account together with its role row. Buyers also
// get their shopping cart created up front.
func (c *Conf) InsertUser(ctx context.Context, newUser NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	var user User
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		queryEmail := `
			SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
		`
		if err := tx.QueryRowContext(ctx, queryEmail, newUser.Email).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check existing email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}

		queryInsertUser := `
			INSERT INTO users (email, full_name, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING user_id, email, full_name, role, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, queryInsertUser, newUser.Email, newUser.FullName, string(hash), newUser.Role).
			Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		switch newUser.Role {
		case "vendor":
			queryVendor := `
				INSERT INTO vendors (user_id, created_at, updated_at)
				VALUES ($1, NOW(), NOW())
			`
			if _, err := tx.ExecContext(ctx, queryVendor, user.ID); err != nil {
				return fmt.Errorf("failed to insert vendor: %w", err)
			}
		case "buyer":
			queryBuyer := `
				INSERT INTO buyers (user_id, created_at, updated_at)
				VALUES ($1, NOW(), NOW())
			`
			if _, err := tx.ExecContext(ctx, queryBuyer, user.ID); err != nil {
				return fmt.Errorf("failed to insert buyer: %w", err)
			}
			queryCart := `
				INSERT INTO shopping_carts (buyer_id, created_at, updated_at)
				VALUES ($1, NOW(), NOW())
			`
			if _, err := tx.ExecContext(ctx, queryCart, user.ID); err != nil {
				return fmt.Errorf("failed to create shopping cart: %w", err)
			}
		default:
			return fmt.Errorf("unknown role: %s", newUser.Role)
		}

		return nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

// AuthenticateUser checks the credentials and returns the matching user.
func (c *Conf) AuthenticateUser(ctx context.Context, email, password string) (User, error) {
	var user User
	var passwordHash string

	query := `
		SELECT user_id, email, full_name, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := c.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.FullName, &passwordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
