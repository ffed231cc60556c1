package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/peermeet/peermeet-backend/internal/models"
)

// ScoringService 두 사용자의 호환 점수 계산. 순수 함수이며 동일 입력에 항상 동일 결과.
type ScoringService struct {
	weights models.ScoringWeights
}

// NewScoringService 스코어링 서비스 생성
func NewScoringService(weights models.ScoringWeights) *ScoringService {
	return &ScoringService{weights: weights}
}

// Weights 현재 적용 중인 가중치
func (s *ScoringService) Weights() models.ScoringWeights {
	return s.weights
}

// Score 한 쌍의 호환 점수 계산. 프로필이 없으면 ErrUserDataNotFound —
// 호출자는 해당 페어만 건너뛰고 사이클을 계속해야 한다.
func (s *ScoringService) Score(a, b *models.UserProfile, ca, cb models.MatchConstraints) (models.CompatibilityResult, error) {
	if a == nil || b == nil {
		return models.CompatibilityResult{}, ErrUserDataNotFound
	}

	features := models.FeatureBreakdown{
		InterestOverlap:       interestOverlap(a, b, ca, cb),
		RoleComplementarity:   roleComplementarity(ca.Roles, cb.Roles),
		ExperienceGap:         experienceGapScore(a.ExperienceYears, b.ExperienceYears),
		IndustryMatch:         industryMatch(a.Industry, b.Industry),
		TimezoneCompatibility: timezoneCompatibility(a.TimezoneOffset, b.TimezoneOffset),
		OrgConstraintMatch:    orgConstraintMatch(a, b, ca, cb),
		LanguageOverlap:       languageOverlap(a.Languages, b.Languages),
	}

	score := s.weights.InterestOverlap*features.InterestOverlap +
		s.weights.RoleComplementarity*features.RoleComplementarity +
		s.weights.ExperienceGap*features.ExperienceGap +
		s.weights.IndustryMatch*features.IndustryMatch +
		s.weights.TimezoneCompatibility*features.TimezoneCompatibility +
		s.weights.OrgConstraintMatch*features.OrgConstraintMatch +
		s.weights.LanguageOverlap*features.LanguageOverlap

	score = clamp01(score)

	explanation := fmt.Sprintf(
		"interests %.2f, roles %.2f, experience %.2f, industry %.2f, timezone %.2f, org %.2f, languages %.2f -> score %.2f (weights %s)",
		features.InterestOverlap,
		features.RoleComplementarity,
		features.ExperienceGap,
		features.IndustryMatch,
		features.TimezoneCompatibility,
		features.OrgConstraintMatch,
		features.LanguageOverlap,
		score,
		s.weights.Version,
	)

	return models.CompatibilityResult{
		Score:       score,
		Features:    features,
		Explanation: explanation,
	}, nil
}

// interestOverlap 선언된 관심사의 Jaccard 유사도에, 양쪽 조건에 공통으로
// 요청된 관심사가 실제 프로필에 존재하면 가중치를 더한다.
func interestOverlap(a, b *models.UserProfile, ca, cb models.MatchConstraints) float64 {
	setA := toSet(a.Interests)
	setB := toSet(b.Interests)
	base := jaccard(setA, setB)

	shared := intersect(toSet(ca.Interests), toSet(cb.Interests))
	if len(shared) == 0 {
		return clamp01(base)
	}

	declared := union(setA, setB)
	present := 0
	for interest := range shared {
		if declared[interest] {
			present++
		}
	}
	bonus := float64(present) / float64(len(shared))

	return clamp01(0.7*base + 0.3*bonus)
}

var roleComplement = map[string]string{
	models.RoleMentor: models.RoleMentee,
	models.RoleMentee: models.RoleMentor,
}

// roleComplementarity 요청 역할이 상보적이면 1.0, 동일한 방향성 역할만 요청하면 0에 가깝게
func roleComplementarity(rolesA, rolesB []string) float64 {
	setA := toSet(rolesA)
	setB := toSet(rolesB)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.5 // 역할 조건 없음
	}

	for role := range setA {
		if comp, ok := roleComplement[role]; ok && setB[comp] {
			return 1.0
		}
	}

	if setA[models.RolePeer] && setB[models.RolePeer] {
		return 0.8
	}

	if rolesMutuallyExclusive(setA, setB) {
		return 0.1
	}

	return 0.4
}

// rolesMutuallyExclusive 양쪽 모두 동일한 단일 방향성 역할만 요청한 경우
// (mentor-mentor, mentee-mentee). 사이클 엔진이 사전 제외에도 사용한다.
func rolesMutuallyExclusive(setA, setB map[string]bool) bool {
	if len(setA) != 1 || len(setB) != 1 {
		return false
	}
	for role := range setA {
		if _, directional := roleComplement[role]; directional && setB[role] {
			return true
		}
	}
	return false
}

// experienceGapScore 경력 차가 작을수록 높은 점수 (15년에서 0으로 수렴)
func experienceGapScore(yearsA, yearsB int) float64 {
	gap := math.Abs(float64(yearsA - yearsB))
	if gap > 15 {
		gap = 15
	}
	return 1.0 - gap/15.0
}

func industryMatch(industryA, industryB string) float64 {
	if industryA == "" || industryB == "" {
		return 0.5
	}
	if strings.EqualFold(industryA, industryB) {
		return 1.0
	}
	return 0.2
}

// timezoneCompatibility UTC 오프셋 차이가 작을수록 높은 점수 (자정 경계 보정)
func timezoneCompatibility(offsetA, offsetB int) float64 {
	diff := math.Abs(float64(offsetA - offsetB))
	if diff > 12 {
		diff = 24 - diff
	}
	return 1.0 - diff/12.0
}

// orgConstraintMatch 명시된 조직 조건이 충족되면 1.0, 위반이면 0.0,
// 조건이 없으면 중립값
func orgConstraintMatch(a, b *models.UserProfile, ca, cb models.MatchConstraints) float64 {
	if ca.OrgConstraint == nil && cb.OrgConstraint == nil {
		return 0.8
	}

	if ca.OrgConstraint != nil && !orgSatisfied(*ca.OrgConstraint, b.OrgID) {
		return 0.0
	}
	if cb.OrgConstraint != nil && !orgSatisfied(*cb.OrgConstraint, a.OrgID) {
		return 0.0
	}

	return 1.0
}

func orgSatisfied(required string, orgID *string) bool {
	return orgID != nil && strings.EqualFold(required, *orgID)
}

func languageOverlap(langsA, langsB []string) float64 {
	setA := toSet(langsA)
	setB := toSet(langsB)
	if len(setA) == 0 && len(setB) == 0 {
		return 0.5
	}
	return jaccard(setA, setB)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func intersect(a, b map[string]bool) map[string]bool {
	result := make(map[string]bool)
	for k := range a {
		if b[k] {
			result[k] = true
		}
	}
	return result
}

func union(a, b map[string]bool) map[string]bool {
	result := make(map[string]bool, len(a)+len(b))
	for k := range a {
		result[k] = true
	}
	for k := range b {
		result[k] = true
	}
	return result
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := len(intersect(a, b))
	uni := len(union(a, b))
	return float64(inter) / float64(uni)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
