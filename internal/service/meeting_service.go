package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peermeet/peermeet-backend/internal/models"
	"go.uber.org/zap"
)

const eventPollInterval = 2 * time.Second

// MeetingService 매치 성사 이벤트를 소비해 미팅을 생성하고,
// 미팅 조회/상태 전환과 시그널 릴레이 인가를 담당한다.
type MeetingService struct {
	meetingStore MeetingStore
	events       MatchEventSource
	notifier     Notifier
	logger       *zap.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewMeetingService 미팅 서비스 생성
func NewMeetingService(meetingStore MeetingStore, events MatchEventSource, notifier Notifier) *MeetingService {
	logger, _ := zap.NewProduction()

	return &MeetingService{
		meetingStore: meetingStore,
		events:       events,
		notifier:     notifier,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start 매치 이벤트 소비 루프 시작
func (s *MeetingService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.events == nil {
		s.logger.Warn("MeetingService started without event source, consumer disabled")
		return
	}

	s.logger.Info("Starting MeetingService event consumer")
	s.wg.Add(1)
	go s.consumeLoop()
}

// Stop 이벤트 소비 루프 중지
func (s *MeetingService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping MeetingService")
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("MeetingService stopped")
}

func (s *MeetingService) consumeLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.drainEvents()
		case <-s.stopChan:
			return
		}
	}
}

// drainEvents 큐가 빌 때까지 이벤트를 처리한다
func (s *MeetingService) drainEvents() {
	ctx := context.Background()

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		item, event, err := s.events.Next(ctx)
		if err != nil {
			s.logger.Error("Failed to fetch match event", zap.Error(err))
			return
		}
		if item == nil {
			return
		}

		if err := s.handleMatchFormed(ctx, event); err != nil {
			s.logger.Error("Failed to handle match event",
				zap.String("matchId", event.MatchID),
				zap.Error(err))
			if failErr := s.events.Fail(ctx, item); failErr != nil {
				s.logger.Error("Failed to requeue match event", zap.Error(failErr))
			}
			continue
		}

		if err := s.events.Complete(ctx, item.ID); err != nil {
			s.logger.Error("Failed to mark match event complete", zap.Error(err))
		}
	}
}

// handleMatchFormed 매치 성사 이벤트 처리: 미팅 생성 (멱등) + 양쪽 사용자 알림
func (s *MeetingService) handleMatchFormed(ctx context.Context, event *models.MatchFormedEvent) error {
	meeting := &models.Meeting{
		ID:             uuid.New().String(),
		MatchID:        event.MatchID,
		User1ID:        event.User1ID,
		User2ID:        event.User2ID,
		ScheduledStart: event.ScheduledStart,
		ScheduledEnd:   event.ScheduledEnd,
		Status:         models.MeetingStatusScheduled,
	}

	// match_id 충돌 시 no-op: 이벤트 재전달에 안전하다
	if err := s.meetingStore.Create(ctx, meeting); err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}

	s.logger.Info("Meeting created from match",
		zap.String("matchId", event.MatchID),
		zap.String("meetingId", meeting.ID))

	if s.notifier != nil {
		payload := map[string]interface{}{
			"matchId":        event.MatchID,
			"meetingId":      meeting.ID,
			"score":          event.Score,
			"scheduledStart": event.ScheduledStart,
			"scheduledEnd":   event.ScheduledEnd,
		}
		partner := map[string]string{
			event.User1ID: event.User2ID,
			event.User2ID: event.User1ID,
		}
		for userID, partnerID := range partner {
			p := map[string]interface{}{"partnerId": partnerID}
			for k, v := range payload {
				p[k] = v
			}
			s.notifier.Send(userID, "match_found", p)
		}
	}

	return nil
}

// GetMeeting 미팅 조회. 참가자만 접근할 수 있다.
func (s *MeetingService) GetMeeting(ctx context.Context, userID, meetingID string) (*models.Meeting, error) {
	meeting, err := s.meetingStore.FindByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	if meeting == nil {
		return nil, ErrMeetingNotFound
	}
	if !meeting.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return meeting, nil
}

// ListMyMeetings 사용자가 참가자인 미팅 목록 (최신순)
func (s *MeetingService) ListMyMeetings(ctx context.Context, userID string, limit int) ([]models.Meeting, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	meetings, err := s.meetingStore.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, nil
}

// CompleteMeeting scheduled 미팅을 completed로 전환
func (s *MeetingService) CompleteMeeting(ctx context.Context, userID, meetingID string) (*models.Meeting, error) {
	return s.transitionMeeting(ctx, userID, meetingID, models.MeetingStatusCompleted)
}

// CancelMeeting scheduled 미팅을 cancelled로 전환
func (s *MeetingService) CancelMeeting(ctx context.Context, userID, meetingID string) (*models.Meeting, error) {
	return s.transitionMeeting(ctx, userID, meetingID, models.MeetingStatusCancelled)
}

func (s *MeetingService) transitionMeeting(ctx context.Context, userID, meetingID string, status models.MeetingStatus) (*models.Meeting, error) {
	meeting, err := s.GetMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}

	updated, err := s.meetingStore.UpdateStatus(ctx, meetingID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting status: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: meeting is not in scheduled state", ErrInvalidStateTransition)
	}

	meeting.Status = status
	return meeting, nil
}

// CanSignal 두 사용자 사이에 scheduled 미팅이 있으면 시그널 릴레이를 허용한다
func (s *MeetingService) CanSignal(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	return s.meetingStore.HaveActiveMeeting(ctx, fromUserID, toUserID)
}
