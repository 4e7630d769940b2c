package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
	"alumni/pkg/platform/tx"
)

const postgresProviderID = "postgres"

// Schema creates the regions table used by PostgresCatalog.
const Schema = `
CREATE TABLE IF NOT EXISTS regions (
	level       SMALLINT NOT NULL,
	code        TEXT     NOT NULL,
	parent_code TEXT     NOT NULL DEFAULT '',
	name        TEXT     NOT NULL,
	postal_code TEXT,
	position    INTEGER  NOT NULL DEFAULT 0,
	PRIMARY KEY (level, code)
);
CREATE INDEX IF NOT EXISTS regions_children_idx ON regions (level, parent_code, position);
`

// PostgresCatalog serves the region catalog from the application database.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Migrate applies Schema. It is idempotent.
func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate regions: %w", err)
	}
	return nil
}

func (c *PostgresCatalog) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	if err := providers.ValidateRequest(level, parentCode); err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, postgresProviderID, "invalid lookup", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT code, name FROM regions WHERE level = $1 AND parent_code = $2 ORDER BY position, code`,
		int(level), parentCode)
	if err != nil {
		return nil, dbError(ctx, "query children", err)
	}
	defer rows.Close()

	options := make([]models.Option, 0)
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.Code, &o.Name); err != nil {
			return nil, dbError(ctx, "scan child", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(ctx, "iterate children", err)
	}

	if len(options) == 0 {
		if parentLevel, ok := level.Parent(); ok {
			var exists bool
			err := c.db.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM regions WHERE level = $1 AND code = $2)`,
				int(parentLevel), parentCode).Scan(&exists)
			if err != nil {
				return nil, dbError(ctx, "check parent", err)
			}
			if !exists {
				return nil, providers.NotFound(postgresProviderID, parentLevel.String()+" "+parentCode+" not in catalog")
			}
		}
	}
	return options, nil
}

func (c *PostgresCatalog) ResolvePostalCode(ctx context.Context, villageCode string) (*string, error) {
	var postal sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT postal_code FROM regions WHERE level = $1 AND code = $2`,
		int(models.LevelVillage), villageCode).Scan(&postal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError(ctx, "query postal code", err)
	}
	if !postal.Valid || postal.String == "" {
		return nil, nil
	}
	return &postal.String, nil
}

// InTx runs fn in one transaction; Store and SetPostalCode calls made with
// the context fn receives join it.
func (c *PostgresCatalog) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, c.db, fn)
}

// Store upserts an option list, keeping its order in position.
func (c *PostgresCatalog) Store(ctx context.Context, level models.Level, parentCode string, options []models.Option) error {
	return c.InTx(ctx, func(ctx context.Context) error {
		conn := tx.Conn(ctx, c.db)
		for i, o := range options {
			_, err := conn.ExecContext(ctx, `
				INSERT INTO regions (level, code, parent_code, name, position)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (level, code) DO UPDATE
				SET parent_code = EXCLUDED.parent_code, name = EXCLUDED.name, position = EXCLUDED.position`,
				int(level), o.Code, parentCode, o.Name, i)
			if err != nil {
				return fmt.Errorf("upsert region %s: %w", o.Code, err)
			}
		}
		return nil
	})
}

// SetPostalCode records the postal code of a village.
func (c *PostgresCatalog) SetPostalCode(ctx context.Context, villageCode, postalCode string) error {
	res, err := tx.Conn(ctx, c.db).ExecContext(ctx,
		`UPDATE regions SET postal_code = $3 WHERE level = $1 AND code = $2`,
		int(models.LevelVillage), villageCode, postalCode)
	if err != nil {
		return fmt.Errorf("set postal code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return providers.NotFound(postgresProviderID, "village "+villageCode+" not in catalog")
	}
	return nil
}

func dbError(ctx context.Context, message string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return providers.FromContext(postgresProviderID, ctxErr)
	}
	return providers.NewProviderError(providers.ErrorProviderOutage, postgresProviderID, message, err)
}
