package models

import (
	"math"
	"testing"
)

// v1 값은 불변이다. 분석 레코드가 버전만 저장하므로 값이 바뀌면
// 기존 레코드를 재현할 수 없다. 조정이 필요하면 새 버전을 추가할 것.
func TestDefaultScoringWeights_V1Frozen(t *testing.T) {
	w := DefaultScoringWeights()

	if w.Version != "v1" {
		t.Fatalf("default weights version = %q, want v1", w.Version)
	}

	frozen := map[string]float64{
		"interestOverlap":       0.25,
		"roleComplementarity":   0.20,
		"experienceGap":         0.10,
		"industryMatch":         0.10,
		"timezoneCompatibility": 0.10,
		"orgConstraintMatch":    0.10,
		"languageOverlap":       0.15,
	}
	got := map[string]float64{
		"interestOverlap":       w.InterestOverlap,
		"roleComplementarity":   w.RoleComplementarity,
		"experienceGap":         w.ExperienceGap,
		"industryMatch":         w.IndustryMatch,
		"timezoneCompatibility": w.TimezoneCompatibility,
		"orgConstraintMatch":    w.OrgConstraintMatch,
		"languageOverlap":       w.LanguageOverlap,
	}

	var sum float64
	for name, want := range frozen {
		if got[name] != want {
			t.Errorf("v1 weight %s = %v, want %v (frozen)", name, got[name], want)
		}
		sum += got[name]
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("v1 weights sum = %v, want 1.0", sum)
	}
}
