package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/peermeet/peermeet-backend/internal/models"
)

// fakeQueueStore 인메모리 QueueStore. 조건부 전이 의미론을 저장소와 동일하게 따른다.
type fakeQueueStore struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
	matches map[string]*models.MatchRecord

	// 커밋 직전에 호출되는 훅 (경합 시뮬레이션용)
	beforeCommit func(entry1ID, entry2ID string)
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{
		entries: make(map[string]*models.QueueEntry),
		matches: make(map[string]*models.MatchRecord),
	}
}

func (f *fakeQueueStore) Create(ctx context.Context, entry *models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *entry
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	copied.UpdatedAt = copied.CreatedAt
	f.entries[entry.ID] = &copied
	entry.CreatedAt = copied.CreatedAt
	entry.UpdatedAt = copied.UpdatedAt
	return nil
}

func (f *fakeQueueStore) FindWaitingByUser(ctx context.Context, userID string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range f.entries {
		if entry.UserID == userID && entry.Status == models.QueueStatusWaiting {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeQueueStore) FindLatestByUser(ctx context.Context, userID string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *models.QueueEntry
	for _, entry := range f.entries {
		if entry.UserID != userID {
			continue
		}
		if latest == nil || entry.CreatedAt.After(latest.CreatedAt) {
			latest = entry
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeQueueStore) FindByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[id]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeQueueStore) ListEligible(ctx context.Context, now time.Time) ([]models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var eligible []models.QueueEntry
	for _, entry := range f.entries {
		if entry.Status != models.QueueStatusWaiting {
			continue
		}
		if entry.AvailableFrom.After(now) || entry.AvailableTo.Before(now) {
			continue
		}
		eligible = append(eligible, *entry)
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	return eligible, nil
}

func (f *fakeQueueStore) CancelEntry(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[id]
	if !ok || entry.Status != models.QueueStatusWaiting {
		return false, nil
	}
	entry.Status = models.QueueStatusCancelled
	entry.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeQueueStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, entry := range f.entries {
		if entry.Status == models.QueueStatusWaiting && entry.AvailableTo.Before(now) {
			entry.Status = models.QueueStatusExpired
			entry.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (f *fakeQueueStore) CommitMatch(ctx context.Context, match *models.MatchRecord, entry1ID, entry2ID string) (bool, error) {
	if f.beforeCommit != nil {
		f.beforeCommit(entry1ID, entry2ID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry1, ok1 := f.entries[entry1ID]
	entry2, ok2 := f.entries[entry2ID]
	if !ok1 || !ok2 {
		return false, nil
	}
	if entry1.Status != models.QueueStatusWaiting || entry2.Status != models.QueueStatusWaiting {
		return false, nil
	}

	now := time.Now().UTC()
	entry1.Status = models.QueueStatusMatched
	entry1.MatchedWith = &entry2.UserID
	entry1.MatchID = &match.ID
	entry1.UpdatedAt = now

	entry2.Status = models.QueueStatusMatched
	entry2.MatchedWith = &entry1.UserID
	entry2.MatchID = &match.ID
	entry2.UpdatedAt = now

	match.CreatedAt = now
	copied := *match
	f.matches[match.ID] = &copied
	return true, nil
}

// fakeProfileStore 인메모리 ProfileStore
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.UserProfile)}
}

func (f *fakeProfileStore) put(profile *models.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.UserID] = profile
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	profile, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

// fakeAnalyticsStore 인메모리 AnalyticsStore
type fakeAnalyticsStore struct {
	mu       sync.Mutex
	matches  map[string]*models.MatchRecord
	feedback map[string]*models.MatchAnalyticsRecord // key: matchID + "/" + userID
}

func newFakeAnalyticsStore() *fakeAnalyticsStore {
	return &fakeAnalyticsStore{
		matches:  make(map[string]*models.MatchRecord),
		feedback: make(map[string]*models.MatchAnalyticsRecord),
	}
}

func (f *fakeAnalyticsStore) putMatch(match *models.MatchRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[match.ID] = match
}

func (f *fakeAnalyticsStore) FindMatchByID(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, ok := f.matches[matchID]
	if !ok {
		return nil, nil
	}
	copied := *match
	return &copied, nil
}

func (f *fakeAnalyticsStore) UpsertFeedback(ctx context.Context, rec *models.MatchAnalyticsRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	copied := *rec
	f.feedback[rec.MatchID+"/"+rec.UserID] = &copied
	return nil
}

func (f *fakeAnalyticsStore) History(ctx context.Context, limit int) ([]models.MatchAnalyticsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var records []models.MatchAnalyticsRecord
	for _, rec := range f.feedback {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *fakeAnalyticsStore) TotalMatches(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matches)), nil
}

func (f *fakeAnalyticsStore) OutcomeCounts(ctx context.Context) (map[models.MatchOutcome]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[models.MatchOutcome]int64)
	for _, rec := range f.feedback {
		counts[rec.Outcome]++
	}
	return counts, nil
}

func (f *fakeAnalyticsStore) HighRatedFeatures(ctx context.Context, minRating int) ([]models.FeatureBreakdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var features []models.FeatureBreakdown
	for _, rec := range f.feedback {
		if rec.Rating != nil && *rec.Rating >= minRating {
			features = append(features, rec.Features)
		}
	}
	return features, nil
}

// fakeAuditStore 기록만 수집하는 AuditStore
type fakeAuditStore struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAuditStore) Record(ctx context.Context, actorID, action, subjectID string, detail interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

// fakePublisher 발행된 이벤트를 수집하는 MatchEventPublisher
type fakePublisher struct {
	mu     sync.Mutex
	events []models.MatchFormedEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event models.MatchFormedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []models.MatchFormedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.MatchFormedEvent, len(f.events))
	copy(out, f.events)
	return out
}
