// Package store is the gateway's local SQLite database.
//
// It holds only what the gateway itself is authoritative for: organization
// membership (used to fence billing actions before any payments call) and
// the org -> Stripe customer mapping (so checkout reuses customers instead
// of minting duplicates). All business data stays behind the upstream API.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS memberships (
	org_id     TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'member',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (org_id, user_id)
);

CREATE TABLE IF NOT EXISTS billing_customers (
	org_id      TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// modernc sqlite is single-writer; avoid SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertOrganization creates or renames an organization.
func (s *Store) UpsertOrganization(ctx context.Context, orgID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`, orgID, name)
	if err != nil {
		return fmt.Errorf("upserting organization: %w", err)
	}
	return nil
}

// AddMember records a user's membership in an organization.
func (s *Store) AddMember(ctx context.Context, orgID, userID, role string) error {
	if role == "" {
		role = "member"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (org_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT(org_id, user_id) DO UPDATE SET role = excluded.role`,
		orgID, userID, role)
	if err != nil {
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership. Removing a non-member is not an error.
func (s *Store) RemoveMember(ctx context.Context, orgID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE org_id = ? AND user_id = ?`, orgID, userID)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// IsMember reports whether userID belongs to orgID.
func (s *Store) IsMember(ctx context.Context, orgID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM memberships WHERE org_id = ? AND user_id = ?`, orgID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return true, nil
}

// CustomerID returns the Stripe customer for an org, or "" if none is stored.
func (s *Store) CustomerID(ctx context.Context, orgID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT customer_id FROM billing_customers WHERE org_id = ?`, orgID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up billing customer: %w", err)
	}
	return id, nil
}

// SaveCustomerID records the Stripe customer for an org.
func (s *Store) SaveCustomerID(ctx context.Context, orgID, customerID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO billing_customers (org_id, customer_id, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(org_id) DO UPDATE SET customer_id = excluded.customer_id,
		                                   updated_at = CURRENT_TIMESTAMP`,
		orgID, customerID)
	if err != nil {
		return fmt.Errorf("saving billing customer: %w", err)
	}
	return nil
}
