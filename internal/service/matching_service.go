package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peermeet/peermeet-backend/internal/models"
	"github.com/peermeet/peermeet-backend/pkg/distributed"
	"go.uber.org/zap"
)

const cycleLockKey = "matching:cycle:lock"
const cycleLockTTL = 60 * time.Second

// MatchingService 주기적 매칭 사이클 엔진.
// 큐의 상태 전이는 CommitMatch의 조건부 업데이트가 유일한 안전 장치이며,
// 샤딩은 비교 비용을 줄이는 작업 분할일 뿐 저장소 분할이 아니다.
type MatchingService struct {
	queueStore   QueueStore
	profileStore ProfileStore
	auditStore   AuditStore
	scoring      *ScoringService
	events       MatchEventPublisher
	lockManager  *distributed.RedisLockManager
	coordinator  *distributed.CycleCoordinator
	logger       *zap.Logger
	instanceID   string

	interval   time.Duration
	shardCount int
	minScore   float64
	maxMatches int

	stopChan    chan struct{}
	triggerChan chan struct{}
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
}

func NewMatchingService(
	queueStore QueueStore,
	profileStore ProfileStore,
	auditStore AuditStore,
	scoring *ScoringService,
	events MatchEventPublisher,
	interval time.Duration,
	shardCount int,
	minScore float64,
	maxMatches int,
) *MatchingService {
	logger, _ := zap.NewProduction()

	return &MatchingService{
		queueStore:   queueStore,
		profileStore: profileStore,
		auditStore:   auditStore,
		scoring:      scoring,
		events:       events,
		logger:       logger,
		instanceID:   uuid.New().String(),
		interval:     interval,
		shardCount:   shardCount,
		minScore:     minScore,
		maxMatches:   maxMatches,
		stopChan:     make(chan struct{}),
		triggerChan:  make(chan struct{}, 1),
	}
}

// SetLockManager 다중 인스턴스 배포에서 사이클 직렬화를 위한 분산 락 설정
func (s *MatchingService) SetLockManager(manager *distributed.RedisLockManager) {
	s.lockManager = manager
}

// SetCoordinator 온디맨드 사이클 요청 수신을 위한 조정자 설정
func (s *MatchingService) SetCoordinator(coordinator *distributed.CycleCoordinator) {
	s.coordinator = coordinator
}

// Start 매칭 사이클 루프 시작
func (s *MatchingService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting MatchingService",
		zap.Duration("interval", s.interval),
		zap.Int("shardCount", s.shardCount),
		zap.Float64("minScore", s.minScore))

	if s.coordinator != nil {
		if err := s.coordinator.Start(context.Background(), func(event distributed.CycleEvent) {
			if event.Type == distributed.EventCycleRequested {
				// 논블로킹: 이미 트리거가 대기 중이면 무시
				select {
				case s.triggerChan <- struct{}{}:
				default:
				}
			}
		}); err != nil {
			s.logger.Error("Failed to start cycle coordinator", zap.Error(err))
		}
	}

	s.wg.Add(1)
	go s.cycleLoop()
}

// Stop 매칭 사이클 루프 중지
func (s *MatchingService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping MatchingService")
	if s.coordinator != nil {
		s.coordinator.Stop()
	}
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("MatchingService stopped")
}

// TriggerCycle 온디맨드 사이클 요청. 조정자가 있으면 전체 인스턴스에 발행한다.
func (s *MatchingService) TriggerCycle(ctx context.Context) error {
	if s.coordinator != nil {
		return s.coordinator.RequestCycle(ctx)
	}

	select {
	case s.triggerChan <- struct{}{}:
	default:
	}
	return nil
}

// RunCycleNow 사이클을 동기 실행하고 결과를 반환한다. 인자가 0 이하이면
// 설정값을 사용한다. 락이 있으면 스케줄 사이클과 동일하게 직렬화된다.
func (s *MatchingService) RunCycleNow(ctx context.Context, shardCount int, minScore float64, maxMatches int) (*models.CycleResult, error) {
	if shardCount <= 0 {
		shardCount = s.shardCount
	}
	if minScore < 0 {
		minScore = s.minScore
	}
	if maxMatches <= 0 {
		maxMatches = s.maxMatches
	}

	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLock(ctx, cycleLockKey, s.instanceID, cycleLockTTL)
		if err == distributed.ErrLockNotAcquired {
			return nil, fmt.Errorf("matching cycle already in progress")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to acquire cycle lock: %w", err)
		}
		defer lock.Release(ctx)
	}

	return s.RunMatchingCycle(ctx, shardCount, minScore, maxMatches)
}

// cycleLoop 주기적 사이클 실행
func (s *MatchingService) cycleLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 시작 시 한번 실행
	s.runScheduledCycle()

	for {
		select {
		case <-ticker.C:
			s.runScheduledCycle()
		case <-s.triggerChan:
			s.runScheduledCycle()
		case <-s.stopChan:
			return
		}
	}
}

// runScheduledCycle 락을 잡은 인스턴스만 사이클을 실행한다
func (s *MatchingService) runScheduledCycle() {
	ctx := context.Background()

	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLock(ctx, cycleLockKey, s.instanceID, cycleLockTTL)
		if err == distributed.ErrLockNotAcquired {
			s.logger.Debug("Cycle lock held by another instance, skipping")
			return
		}
		if err != nil {
			s.logger.Error("Failed to acquire cycle lock", zap.Error(err))
			return
		}
		defer lock.Release(ctx)
	}

	result, err := s.RunMatchingCycle(ctx, s.shardCount, s.minScore, s.maxMatches)
	if err != nil {
		// 사이클 단위 실패는 다음 주기에 재시도된다
		s.logger.Error("Matching cycle failed", zap.Error(err))
		return
	}

	if result.TotalMatches > 0 || result.Conflicts > 0 {
		s.logger.Info("Matching cycle completed",
			zap.Int("candidates", result.Candidates),
			zap.Int("matches", result.TotalMatches),
			zap.Int("conflicts", result.Conflicts),
			zap.Int64("expired", result.Expired))
	}
}

// RunMatchingCycle 매칭 사이클 한 번 실행.
// 수집 -> 샤딩 -> 점수 계산 -> 탐욕 선택 -> 조건부 커밋.
// 페어 단위 커밋 충돌은 흡수되고, 큐 자체를 읽지 못하면 사이클 전체가 실패한다.
func (s *MatchingService) RunMatchingCycle(ctx context.Context, shardCount int, minScore float64, maxMatches int) (*models.CycleResult, error) {
	now := time.Now().UTC()

	// 1. 만료된 엔트리 정리. waiting에서만 전환하므로 동시 커밋과 경합하지 않는다.
	expired, err := s.queueStore.ExpireOverdue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to expire overdue entries", zap.Error(err))
	} else if expired > 0 {
		s.recordAudit(ctx, "system", models.AuditQueueExpired, "", map[string]interface{}{"count": expired})
	}

	// 2. 수집
	entries, err := s.queueStore.ListEligible(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to collect queue entries: %w", err)
	}

	result := &models.CycleResult{Expired: expired, Candidates: len(entries)}
	if len(entries) < 2 {
		return result, nil
	}

	if shardCount < 1 {
		shardCount = 1
	}
	if maxMatches < 1 {
		maxMatches = len(entries)
	}

	// 3. 샤딩: userId의 안정 해시로 분할. 비교 비용을 O(n^2/shardCount)로 제한한다.
	shards := shardEntries(entries, shardCount)
	cache := newProfileCache(s.profileStore)
	budget := &matchBudget{remaining: maxMatches}

	var wg sync.WaitGroup
	var resultMu sync.Mutex

	for _, shard := range shards {
		if len(shard) < 2 {
			continue
		}

		wg.Add(1)
		go func(shard []models.QueueEntry) {
			defer wg.Done()

			details, conflicts := s.processShard(ctx, shard, cache, minScore, budget)

			resultMu.Lock()
			result.Details = append(result.Details, details...)
			result.Conflicts += conflicts
			resultMu.Unlock()
		}(shard)
	}

	wg.Wait()

	result.TotalMatches = len(result.Details)
	return result, nil
}

type scoredPair struct {
	a, b   *models.QueueEntry
	result models.CompatibilityResult
}

// processShard 샤드 내 모든 후보 쌍을 점수화하고 탐욕 선택 후 커밋한다
func (s *MatchingService) processShard(
	ctx context.Context,
	shard []models.QueueEntry,
	cache *profileCache,
	minScore float64,
	budget *matchBudget,
) ([]models.MatchDetail, int) {
	// 프로필 해석. 실패는 해당 사용자만 제외하고 사이클은 계속한다.
	profiles := make(map[string]*models.UserProfile, len(shard))
	for i := range shard {
		entry := &shard[i]
		profile, err := cache.get(ctx, entry.UserID)
		if err != nil {
			s.logger.Warn("Failed to load profile, skipping user",
				zap.String("userId", entry.UserID),
				zap.Error(err))
			continue
		}
		if profile == nil {
			s.logger.Debug("User profile not found, skipping user",
				zap.String("userId", entry.UserID))
			continue
		}
		profiles[entry.UserID] = profile
	}

	// 모든 비순서쌍 점수 계산. 제외 규칙은 점수 계산 전에 적용한다.
	var pairs []scoredPair
	for i := 0; i < len(shard); i++ {
		for j := i + 1; j < len(shard); j++ {
			a, b := &shard[i], &shard[j]

			profA, okA := profiles[a.UserID]
			profB, okB := profiles[b.UserID]
			if !okA || !okB {
				continue
			}

			if excludePair(a, b, profA, profB) {
				continue
			}

			res, err := s.scoring.Score(profA, profB, a.Constraints, b.Constraints)
			if err != nil {
				continue
			}
			if res.Score < minScore {
				continue
			}

			pairs = append(pairs, scoredPair{a: a, b: b, result: res})
		}
	}

	// 점수 내림차순, 동점은 오래된 엔트리 우선 (사이클 재현성)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].result.Score != pairs[j].result.Score {
			return pairs[i].result.Score > pairs[j].result.Score
		}
		ci, cj := olderCreation(pairs[i]), olderCreation(pairs[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return pairs[i].a.ID+pairs[i].b.ID < pairs[j].a.ID+pairs[j].b.ID
	})

	// 탐욕 선택 + 조건부 커밋. 충돌한 쌍의 사용자는 이후 쌍에서 다시 고려된다.
	var details []models.MatchDetail
	conflicts := 0
	claimed := make(map[string]bool)

	for _, pair := range pairs {
		if claimed[pair.a.UserID] || claimed[pair.b.UserID] {
			continue
		}

		if !budget.take() {
			break
		}

		match := &models.MatchRecord{
			ID:             uuid.New().String(),
			User1ID:        pair.a.UserID,
			User2ID:        pair.b.UserID,
			Score:          pair.result.Score,
			Features:       pair.result.Features,
			WeightsVersion: s.scoring.Weights().Version,
		}

		committed, err := s.queueStore.CommitMatch(ctx, match, pair.a.ID, pair.b.ID)
		if err != nil {
			budget.put()
			s.logger.Error("Failed to commit pair",
				zap.String("user1", pair.a.UserID),
				zap.String("user2", pair.b.UserID),
				zap.Error(err))
			continue
		}
		if !committed {
			// 커밋 충돌: 취소/만료/다른 커밋이 먼저 도착. 양쪽 모두 미청구로 남긴다.
			budget.put()
			conflicts++
			s.logger.Debug("Commit conflict, pair skipped",
				zap.String("user1", pair.a.UserID),
				zap.String("user2", pair.b.UserID))
			continue
		}

		claimed[pair.a.UserID] = true
		claimed[pair.b.UserID] = true

		s.publishMatchFormed(ctx, match, pair)
		s.recordAudit(ctx, "system", models.AuditMatchCommitted, match.ID, map[string]interface{}{
			"user1": pair.a.UserID,
			"user2": pair.b.UserID,
			"score": pair.result.Score,
		})

		details = append(details, models.MatchDetail{
			MatchID:     match.ID,
			User1ID:     pair.a.UserID,
			User2ID:     pair.b.UserID,
			Score:       pair.result.Score,
			Features:    pair.result.Features,
			Explanation: pair.result.Explanation,
		})
	}

	return details, conflicts
}

// publishMatchFormed 미팅 생성 플로우로 이벤트 전달. 실패해도 매칭은 유지된다.
func (s *MatchingService) publishMatchFormed(ctx context.Context, match *models.MatchRecord, pair scoredPair) {
	if s.events == nil {
		return
	}

	start := pair.a.AvailableFrom
	if pair.b.AvailableFrom.After(start) {
		start = pair.b.AvailableFrom
	}
	end := pair.a.AvailableTo
	if pair.b.AvailableTo.Before(end) {
		end = pair.b.AvailableTo
	}

	event := models.MatchFormedEvent{
		MatchID:        match.ID,
		User1ID:        match.User1ID,
		User2ID:        match.User2ID,
		Score:          match.Score,
		ScheduledStart: start,
		ScheduledEnd:   end,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish match event",
			zap.String("matchId", match.ID),
			zap.Error(err))
	}
}

func (s *MatchingService) recordAudit(ctx context.Context, actorID, action, subjectID string, detail interface{}) {
	if s.auditStore == nil {
		return
	}
	if err := s.auditStore.Record(ctx, actorID, action, subjectID, detail); err != nil {
		s.logger.Error("Failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

// excludePair 점수 계산 전에 걸러내는 제외 규칙:
// 조직 조건 위반, 상호 배타적 역할 요청
func excludePair(a, b *models.QueueEntry, profA, profB *models.UserProfile) bool {
	if a.Constraints.OrgConstraint != nil && !orgSatisfied(*a.Constraints.OrgConstraint, profB.OrgID) {
		return true
	}
	if b.Constraints.OrgConstraint != nil && !orgSatisfied(*b.Constraints.OrgConstraint, profA.OrgID) {
		return true
	}
	return rolesMutuallyExclusive(toSet(a.Constraints.Roles), toSet(b.Constraints.Roles))
}

// shardEntries userId의 FNV-1a 해시로 엔트리를 분할한다
func shardEntries(entries []models.QueueEntry, shardCount int) [][]models.QueueEntry {
	shards := make([][]models.QueueEntry, shardCount)
	for _, entry := range entries {
		h := fnv.New32a()
		h.Write([]byte(entry.UserID))
		idx := int(h.Sum32() % uint32(shardCount))
		shards[idx] = append(shards[idx], entry)
	}
	return shards
}

func olderCreation(pair scoredPair) time.Time {
	if pair.a.CreatedAt.Before(pair.b.CreatedAt) {
		return pair.a.CreatedAt
	}
	return pair.b.CreatedAt
}

// profileCache 사이클 한 번 동안의 프로필 조회 메모이제이션.
// 사이클 종료와 함께 버려진다.
type profileCache struct {
	store ProfileStore
	mu    sync.Mutex
	cache map[string]*models.UserProfile
	errs  map[string]error
}

func newProfileCache(store ProfileStore) *profileCache {
	return &profileCache{
		store: store,
		cache: make(map[string]*models.UserProfile),
		errs:  make(map[string]error),
	}
}

func (c *profileCache) get(ctx context.Context, userID string) (*models.UserProfile, error) {
	c.mu.Lock()
	if profile, ok := c.cache[userID]; ok {
		c.mu.Unlock()
		return profile, nil
	}
	if err, ok := c.errs[userID]; ok {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	profile, err := c.store.GetProfile(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs[userID] = err
		return nil, err
	}
	c.cache[userID] = profile
	return profile, nil
}

// matchBudget 사이클 전역 maxMatches 상한. 샤드들이 동시에 차감한다.
type matchBudget struct {
	mu        sync.Mutex
	remaining int
}

func (b *matchBudget) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

func (b *matchBudget) put() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remaining++
}
