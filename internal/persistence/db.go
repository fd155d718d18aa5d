// Package persistence provides SQLite storage for producer values and transfers.
// Vectors are stored in their wire form.
package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/napolitain/resource-engine/internal/converter"
	"github.com/napolitain/resource-engine/internal/models"
)

// DB wraps a SQLite connection
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite serializes writers
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resource_values (
		entity_id INTEGER PRIMARY KEY,
		resources TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS resource_transfers (
		id TEXT PRIMARY KEY,
		receiver INTEGER NOT NULL,
		giver INTEGER NOT NULL,
		resources TEXT NOT NULL,
		cause INTEGER NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_at ON resource_transfers(at);
	CREATE INDEX IF NOT EXISTS idx_transfers_receiver ON resource_transfers(receiver);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type valueRow struct {
	EntityID  int64  `db:"entity_id"`
	Resources string `db:"resources"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r valueRow) dto() (models.ValueDto, error) {
	resources, err := converter.DecodeResources(r.Resources)
	if err != nil {
		return models.ValueDto{}, fmt.Errorf("entity %d: %w", r.EntityID, err)
	}
	return models.ValueDto{Entity: models.EntityID(r.EntityID), Resources: resources, Time: r.UpdatedAt}, nil
}

// SaveValues upserts every value in one transaction
func (db *DB) SaveValues(ctx context.Context, values []models.ValueDto) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO resource_values (entity_id, resources, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET resources = excluded.resources, updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, int64(v.Entity), converter.EncodeResources(v.Resources), v.Time); err != nil {
			return fmt.Errorf("save entity %d: %w", v.Entity, err)
		}
	}
	return tx.Commit()
}

// LoadValues reads every stored value, ordered by entity
func (db *DB) LoadValues(ctx context.Context) ([]models.ValueDto, error) {
	var rows []valueRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT entity_id, resources, updated_at FROM resource_values ORDER BY entity_id"); err != nil {
		return nil, err
	}
	values := make([]models.ValueDto, 0, len(rows))
	for _, r := range rows {
		v, err := r.dto()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Transfer is a stored transfer
type Transfer struct {
	ID       string
	Transfer models.TransferDto
	At       int64
}

type transferRow struct {
	ID        string `db:"id"`
	Receiver  int    `db:"receiver"`
	Giver     int    `db:"giver"`
	Resources string `db:"resources"`
	Cause     int    `db:"cause"`
	At        int64  `db:"at"`
}

// RecordTransfer stores a transfer under a fresh id
func (db *DB) RecordTransfer(ctx context.Context, t models.TransferDto, at int64) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO resource_transfers (id, receiver, giver, resources, cause, at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), int(t.Receiver), int(t.Giver), converter.EncodeResources(t.Resources), int(t.Cause), at)
	return err
}

// Transfers reads transfers at or after since, oldest first
func (db *DB) Transfers(ctx context.Context, since int64) ([]Transfer, error) {
	var rows []transferRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, receiver, giver, resources, cause, at FROM resource_transfers WHERE at >= ? ORDER BY at, rowid", since); err != nil {
		return nil, err
	}
	transfers := make([]Transfer, 0, len(rows))
	for _, r := range rows {
		resources, err := converter.DecodeResources(r.Resources)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", r.ID, err)
		}
		cause, err := models.TransferCauseOf(r.Cause)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", r.ID, err)
		}
		transfers = append(transfers, Transfer{
			ID: r.ID,
			Transfer: models.TransferDto{
				Receiver:  models.PlayerID(r.Receiver),
				Giver:     models.PlayerID(r.Giver),
				Resources: resources,
				Cause:     cause,
			},
			At: r.At,
		})
	}
	return transfers, nil
}
