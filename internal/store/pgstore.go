package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Azzot88/artline-sub000/model"
)

// PgModelStore is a PostgreSQL-backed ModelStore using pgx/v5. Raw schema
// and config document are stored as JSONB columns.
type PgModelStore struct {
	pool *pgxpool.Pool
}

// NewPgModelStore creates a new PostgreSQL model store.
func NewPgModelStore(pool *pgxpool.Pool) *PgModelStore {
	return &PgModelStore{pool: pool}
}

// Create inserts a new model record.
func (s *PgModelStore) Create(ctx context.Context, rec ModelRecord) error {
	schemaJSON, docJSON, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO generation_models (
			model_id, provider, modes, raw_schema, document, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 1, $6, $6)`,
		rec.ModelID, rec.Provider, rec.Modes, schemaJSON, docJSON, now,
	)
	if err != nil {
		return fmt.Errorf("insert model record: %w", err)
	}
	return nil
}

// Get retrieves a model record by ID.
func (s *PgModelStore) Get(ctx context.Context, modelID string) (ModelRecord, error) {
	var rec ModelRecord
	var schemaJSON, docJSON []byte

	err := s.pool.QueryRow(ctx, `
		SELECT model_id, provider, modes, raw_schema, document, version,
		       created_at, updated_at
		FROM generation_models
		WHERE model_id = $1`,
		modelID,
	).Scan(
		&rec.ModelID, &rec.Provider, &rec.Modes, &schemaJSON, &docJSON,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return ModelRecord{}, model.NewNotFoundError(
			fmt.Sprintf("model %q not found", modelID),
		)
	}
	if err != nil {
		return ModelRecord{}, fmt.Errorf("query model record: %w", err)
	}

	if err := unmarshalRecord(&rec, schemaJSON, docJSON); err != nil {
		return ModelRecord{}, err
	}
	return rec, nil
}

// Update persists an updated record with optimistic locking.
func (s *PgModelStore) Update(ctx context.Context, rec ModelRecord) error {
	schemaJSON, docJSON, err := marshalRecord(rec)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE generation_models SET
			provider = $1,
			modes = $2,
			raw_schema = $3,
			document = $4,
			version = $5,
			updated_at = $6
		WHERE model_id = $7 AND version = $8`,
		rec.Provider, rec.Modes, schemaJSON, docJSON, rec.Version+1,
		time.Now().UTC(),
		rec.ModelID, rec.Version,
	)
	if err != nil {
		return fmt.Errorf("update model record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(
			fmt.Sprintf("model %q version conflict (expected %d)", rec.ModelID, rec.Version),
		)
	}
	return nil
}

// List returns model records ordered by model ID.
func (s *PgModelStore) List(ctx context.Context, filters ModelFilters) ([]ModelRecord, error) {
	query := `SELECT model_id, provider, modes, raw_schema, document, version,
	                 created_at, updated_at
	          FROM generation_models`
	var args []any
	argIdx := 1

	if filters.Provider != "" {
		query += fmt.Sprintf(" WHERE provider = $%d", argIdx)
		args = append(args, filters.Provider)
		argIdx++
	}

	query += " ORDER BY model_id ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query model records: %w", err)
	}
	defer rows.Close()

	var records []ModelRecord
	for rows.Next() {
		var rec ModelRecord
		var schemaJSON, docJSON []byte
		if err := rows.Scan(
			&rec.ModelID, &rec.Provider, &rec.Modes, &schemaJSON, &docJSON,
			&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan model record: %w", err)
		}
		if err := unmarshalRecord(&rec, schemaJSON, docJSON); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a model record.
func (s *PgModelStore) Delete(ctx context.Context, modelID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM generation_models
		WHERE model_id = $1`,
		modelID,
	)
	if err != nil {
		return fmt.Errorf("delete model record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError(
			fmt.Sprintf("model %q not found", modelID),
		)
	}
	return nil
}

// Ping verifies the database connection.
func (s *PgModelStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func marshalRecord(rec ModelRecord) (schemaJSON, docJSON []byte, err error) {
	schemaJSON, err = json.Marshal(rec.RawSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal raw schema: %w", err)
	}
	docJSON, err = json.Marshal(rec.Document)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal config document: %w", err)
	}
	return schemaJSON, docJSON, nil
}

func unmarshalRecord(rec *ModelRecord, schemaJSON, docJSON []byte) error {
	if schemaJSON != nil {
		if err := json.Unmarshal(schemaJSON, &rec.RawSchema); err != nil {
			return fmt.Errorf("unmarshal raw schema: %w", err)
		}
	}
	if docJSON != nil {
		if err := json.Unmarshal(docJSON, &rec.Document); err != nil {
			return fmt.Errorf("unmarshal config document: %w", err)
		}
	}
	return nil
}
