package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/database"
)

type QueueRepository struct {
	db *database.DB
}

func NewQueueRepository(db *database.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

const queueColumns = `id, user_id, available_from, available_to, interests, roles, org_constraint,
	status, matched_with, match_id, created_at, updated_at`

func scanQueueEntry(row interface{ Scan(...interface{}) error }) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.AvailableFrom,
		&entry.AvailableTo,
		pq.Array(&entry.Constraints.Interests),
		pq.Array(&entry.Constraints.Roles),
		&entry.Constraints.OrgConstraint,
		&entry.Status,
		&entry.MatchedWith,
		&entry.MatchID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Create 큐 엔트리 삽입
func (r *QueueRepository) Create(ctx context.Context, entry *models.QueueEntry) error {
	query := `
		INSERT INTO matching_queue (id, user_id, available_from, available_to, interests, roles, org_constraint, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'waiting')
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.AvailableFrom,
		entry.AvailableTo,
		pq.Array(entry.Constraints.Interests),
		pq.Array(entry.Constraints.Roles),
		entry.Constraints.OrgConstraint,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	entry.Status = models.QueueStatusWaiting
	return nil
}

// FindWaitingByUser 사용자의 waiting 엔트리 조회 (없으면 nil)
func (r *QueueRepository) FindWaitingByUser(ctx context.Context, userID string) (*models.QueueEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM matching_queue
		WHERE user_id = $1 AND status = 'waiting'
		LIMIT 1
	`, queueColumns)

	entry, err := scanQueueEntry(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting entry: %w", err)
	}

	return entry, nil
}

// FindLatestByUser 사용자의 가장 최근 엔트리 조회 (상태 무관, 없으면 nil)
func (r *QueueRepository) FindLatestByUser(ctx context.Context, userID string) (*models.QueueEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM matching_queue
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, queueColumns)

	entry, err := scanQueueEntry(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest entry: %w", err)
	}

	return entry, nil
}

// FindByID ID로 엔트리 조회 (없으면 nil)
func (r *QueueRepository) FindByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM matching_queue WHERE id = $1`, queueColumns)

	entry, err := scanQueueEntry(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}

	return entry, nil
}

// ListEligible 매칭 대상 엔트리 목록 (waiting이며 가용 시간 창 내)
func (r *QueueRepository) ListEligible(ctx context.Context, now time.Time) ([]models.QueueEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM matching_queue
		WHERE status = 'waiting'
		  AND available_from <= $1
		  AND available_to >= $1
		ORDER BY created_at ASC
	`, queueColumns)

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible entries: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// CancelEntry waiting 상태에서만 취소로 전환. 전환이 일어났는지 여부를 반환한다.
func (r *QueueRepository) CancelEntry(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE matching_queue
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'waiting'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel queue entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// ExpireOverdue 가용 시간이 지난 waiting 엔트리를 expired로 전환.
// waiting에서만 전환하므로 같은 틱에 매칭된 엔트리는 건드리지 않으며, 두 번 실행해도 추가 변경이 없다.
func (r *QueueRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE matching_queue
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'waiting' AND available_to < $1
	`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire entries: %w", err)
	}

	return result.RowsAffected()
}

// CommitMatch 페어 커밋. 두 엔트리 모두 아직 waiting일 때만 matched로 전환하고
// 같은 트랜잭션에서 매치 레코드를 생성한다. 어느 한쪽이라도 상태가 바뀌었으면
// 롤백하고 false를 반환한다 (커밋 충돌).
func (r *QueueRepository) CommitMatch(ctx context.Context, match *models.MatchRecord, entry1ID, entry2ID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	update := `
		UPDATE matching_queue
		SET status = 'matched', matched_with = $2, match_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'waiting'
	`

	result, err := tx.ExecContext(ctx, update, entry1ID, match.User2ID, match.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update entry1: %w", err)
	}
	rows1, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows1 != 1 {
		return false, nil
	}

	result, err = tx.ExecContext(ctx, update, entry2ID, match.User1ID, match.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update entry2: %w", err)
	}
	rows2, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows2 != 1 {
		return false, nil
	}

	features, err := json.Marshal(match.Features)
	if err != nil {
		return false, fmt.Errorf("failed to marshal features: %w", err)
	}

	insert := `
		INSERT INTO matches (id, user1_id, user2_id, score, features, weights_version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := tx.QueryRowContext(ctx, insert,
		match.ID,
		match.User1ID,
		match.User2ID,
		match.Score,
		features,
		match.WeightsVersion,
	).Scan(&match.CreatedAt); err != nil {
		return false, fmt.Errorf("failed to insert match record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit match: %w", err)
	}

	return true, nil
}
