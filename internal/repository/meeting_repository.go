package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/database"
)

type MeetingRepository struct {
	db *database.DB
}

func NewMeetingRepository(db *database.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, match_id, user1_id, user2_id, scheduled_start, scheduled_end, status, created_at, updated_at`

func scanMeeting(row interface{ Scan(...interface{}) error }) (*models.Meeting, error) {
	meeting := &models.Meeting{}
	err := row.Scan(
		&meeting.ID,
		&meeting.MatchID,
		&meeting.User1ID,
		&meeting.User2ID,
		&meeting.ScheduledStart,
		&meeting.ScheduledEnd,
		&meeting.Status,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// Create 미팅 생성. 같은 매치에 대한 중복 생성은 무시한다 (이벤트 재전달 대비).
func (r *MeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	query := `
		INSERT INTO meetings (id, match_id, user1_id, user2_id, scheduled_start, scheduled_end, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled')
		ON CONFLICT (match_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		meeting.ID,
		meeting.MatchID,
		meeting.User1ID,
		meeting.User2ID,
		meeting.ScheduledStart,
		meeting.ScheduledEnd,
	)

	if err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	meeting.Status = models.MeetingStatusScheduled
	return nil
}

// FindByID ID로 미팅 조회 (없으면 nil)
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.Meeting, error) {
	query := fmt.Sprintf(`SELECT %s FROM meetings WHERE id = $1`, meetingColumns)

	meeting, err := scanMeeting(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}

	return meeting, nil
}

// ListByUser 사용자의 미팅 목록 (최근순)
func (r *MeetingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Meeting, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM meetings
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, meetingColumns)

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *meeting)
	}

	return meetings, rows.Err()
}

// UpdateStatus scheduled 상태에서만 전환. 전환이 일어났는지 여부를 반환한다.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) (bool, error) {
	query := `
		UPDATE meetings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update meeting status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// HaveActiveMeeting 두 사용자 간 진행 중(scheduled) 미팅 존재 여부. 시그널 릴레이 권한 확인에 쓰인다.
func (r *MeetingRepository) HaveActiveMeeting(ctx context.Context, userA, userB string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM meetings
			WHERE status = 'scheduled'
			  AND ((user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1))
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active meeting: %w", err)
	}

	return exists, nil
}
