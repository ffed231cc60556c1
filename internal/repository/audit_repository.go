package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/peermeet/peermeet-backend/pkg/database"
)

type AuditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record 감사 기록 추가 (append-only)
func (r *AuditRepository) Record(ctx context.Context, actorID, action, subjectID string, detail interface{}) error {
	var payload []byte
	if detail != nil {
		var err error
		payload, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (id, actor_id, action, subject_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), actorID, action, subjectID, payload)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}
