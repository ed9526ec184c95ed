package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minho/argos/internal/contracts"
)

// Repository persists approved candidates in PostgreSQL
// ⭐ SSOT: 승인 후보 이력 저장은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the approved-candidate repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveApproved inserts one row per approved candidate
func (r *Repository) SaveApproved(ctx context.Context, approved []contracts.ApprovedCandidate) error {
	if len(approved) == 0 {
		return nil
	}

	query := `
		INSERT INTO argos.approved_candidates (
			code, name, price, quantity, final_score,
			breakdown, ai_signal, ai_confidence, ai_reasons, approved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range approved {
		breakdownJSON, err := json.Marshal(a.Breakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal breakdown: %w", err)
		}
		reasonsJSON, err := json.Marshal(a.AIReasons)
		if err != nil {
			return fmt.Errorf("failed to marshal reasons: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			a.Code, a.Name, a.Price, a.Quantity, a.FinalScore,
			breakdownJSON, string(a.AISignal), a.AIConfidence.String(), reasonsJSON, a.ApprovedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert approved candidate %s: %w", a.Code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecentApproved returns the most recent approvals, newest first
func (r *Repository) RecentApproved(ctx context.Context, limit int) ([]contracts.ApprovedCandidate, error) {
	query := `
		SELECT code, name, price, quantity, final_score,
		       breakdown, ai_signal, ai_confidence, ai_reasons, approved_at
		FROM argos.approved_candidates
		ORDER BY approved_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved candidates: %w", err)
	}
	defer rows.Close()

	result := make([]contracts.ApprovedCandidate, 0, limit)

	for rows.Next() {
		var a contracts.ApprovedCandidate
		var breakdownJSON, reasonsJSON []byte
		var signal, confidence string

		err := rows.Scan(
			&a.Code, &a.Name, &a.Price, &a.Quantity, &a.FinalScore,
			&breakdownJSON, &signal, &confidence, &reasonsJSON, &a.ApprovedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approved candidate: %w", err)
		}

		if err := json.Unmarshal(breakdownJSON, &a.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		if err := json.Unmarshal(reasonsJSON, &a.AIReasons); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}

		a.AISignal = contracts.Signal(signal)
		if conf, err := contracts.ParseConfidence(confidence); err == nil {
			a.AIConfidence = conf
		}

		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}
