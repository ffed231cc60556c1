package models

// FeatureBreakdown 점수를 구성하는 피처별 기여도 (각각 [0,1])
type FeatureBreakdown struct {
	InterestOverlap       float64 `json:"interestOverlap"`
	RoleComplementarity   float64 `json:"roleComplementarity"`
	ExperienceGap         float64 `json:"experienceGap"`
	IndustryMatch         float64 `json:"industryMatch"`
	TimezoneCompatibility float64 `json:"timezoneCompatibility"`
	OrgConstraintMatch    float64 `json:"orgConstraintMatch"`
	LanguageOverlap       float64 `json:"languageOverlap"`
}

// CompatibilityResult 한 쌍에 대한 점수 계산 결과 (사이클 내 일시적, 저장 안 함)
type CompatibilityResult struct {
	Score       float64          `json:"score"` // [0,1]
	Features    FeatureBreakdown `json:"features"`
	Explanation string           `json:"explanation"`
}

// ScoringWeights 피처 가중치. 버전을 가진 설정이며 분석 레코드에 그대로 기록된다.
type ScoringWeights struct {
	Version               string  `json:"version"`
	InterestOverlap       float64 `json:"interestOverlap"`
	RoleComplementarity   float64 `json:"roleComplementarity"`
	ExperienceGap         float64 `json:"experienceGap"`
	IndustryMatch         float64 `json:"industryMatch"`
	TimezoneCompatibility float64 `json:"timezoneCompatibility"`
	OrgConstraintMatch    float64 `json:"orgConstraintMatch"`
	LanguageOverlap       float64 `json:"languageOverlap"`
}

// DefaultScoringWeights 기본 가중치 (합계 1.0).
// 분석 레코드는 가중치 전체가 아니라 버전만 저장하므로, 한번 배포된
// 버전의 값은 불변이다. 가중치를 조정할 때는 값을 고치지 말고
// 새 버전을 추가해야 기존 레코드를 재현할 수 있다.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Version:               "v1",
		InterestOverlap:       0.25,
		RoleComplementarity:   0.20,
		ExperienceGap:         0.10,
		IndustryMatch:         0.10,
		TimezoneCompatibility: 0.10,
		OrgConstraintMatch:    0.10,
		LanguageOverlap:       0.15,
	}
}
