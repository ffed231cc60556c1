package models

import "time"

// MatchRecord 성사된 매칭 한 건. 사이클 엔진이 페어 커밋과 같은 트랜잭션에서 생성한다.
type MatchRecord struct {
	ID             string           `db:"id" json:"id"`
	User1ID        string           `db:"user1_id" json:"user1Id"`
	User2ID        string           `db:"user2_id" json:"user2Id"`
	Score          float64          `db:"score" json:"score"`
	Features       FeatureBreakdown `db:"-" json:"features"`
	WeightsVersion string           `db:"weights_version" json:"weightsVersion"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
}

// MatchDetail 사이클 결과에 포함되는 페어별 상세
type MatchDetail struct {
	MatchID     string           `json:"matchId"`
	User1ID     string           `json:"user1Id"`
	User2ID     string           `json:"user2Id"`
	Score       float64          `json:"score"`
	Features    FeatureBreakdown `json:"features"`
	Explanation string           `json:"explanation"`
}

// CycleResult 매칭 사이클 한 번의 실행 결과
type CycleResult struct {
	TotalMatches int           `json:"totalMatches"`
	Candidates   int           `json:"candidates"`
	Conflicts    int           `json:"conflicts"`
	Expired      int64         `json:"expired"`
	Details      []MatchDetail `json:"details"`
}

// MatchFormedEvent 페어 커밋 직후 발행되는 이벤트. 미팅 생성 플로우가 소비한다.
type MatchFormedEvent struct {
	MatchID        string    `json:"matchId"`
	User1ID        string    `json:"user1Id"`
	User2ID        string    `json:"user2Id"`
	Score          float64   `json:"score"`
	ScheduledStart time.Time `json:"scheduledStart"` // 두 가용 시간 창의 교집합 시작
	ScheduledEnd   time.Time `json:"scheduledEnd"`
	CreatedAt      time.Time `json:"createdAt"`
}
