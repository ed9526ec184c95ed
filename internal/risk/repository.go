package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists risk manager state in PostgreSQL
// ⭐ SSOT: 리스크 상태 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new risk state repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save upserts the single risk state row
func (r *Repository) Save(ctx context.Context, snap *Snapshot) error {
	stateJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal risk state: %w", err)
	}

	query := `
		INSERT INTO argos.risk_state (id, state, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query, stateJSON, snap.SavedAt)
	if err != nil {
		return fmt.Errorf("failed to save risk state: %w", err)
	}

	return nil
}

// Load retrieves the persisted risk state, (nil, nil) when absent
func (r *Repository) Load(ctx context.Context) (*Snapshot, error) {
	query := `SELECT state FROM argos.risk_state WHERE id = 1`

	var stateJSON []byte
	err := r.pool.QueryRow(ctx, query).Scan(&stateJSON)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load risk state: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(stateJSON, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal risk state: %w", err)
	}

	return &snap, nil
}
