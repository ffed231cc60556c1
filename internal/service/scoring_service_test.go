package service

import (
	"testing"

	"github.com/peermeet/peermeet-backend/internal/models"
)

func strPtr(s string) *string {
	return &s
}

func mentorProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:          "mentor-1",
		Role:            models.RoleMentor,
		ExperienceYears: 10,
		Industry:        "software",
		TimezoneOffset:  1,
		Languages:       []string{"en", "ko"},
		Interests:       []string{"ai", "backend", "databases"},
	}
}

func menteeProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:          "mentee-1",
		Role:            models.RoleMentee,
		ExperienceYears: 2,
		Industry:        "software",
		TimezoneOffset:  1,
		Languages:       []string{"en", "ko"},
		Interests:       []string{"ai", "backend", "databases"},
	}
}

func TestScoringService_Score_Deterministic(t *testing.T) {
	scoring := NewScoringService(models.DefaultScoringWeights())

	a := mentorProfile()
	b := menteeProfile()
	ca := models.MatchConstraints{Roles: []string{models.RoleMentee}, Interests: []string{"ai"}}
	cb := models.MatchConstraints{Roles: []string{models.RoleMentor}, Interests: []string{"ai"}}

	first, err := scoring.Score(a, b, ca, cb)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := scoring.Score(a, b, ca, cb)
		if err != nil {
			t.Fatalf("Score returned error on repeat: %v", err)
		}
		if again.Score != first.Score {
			t.Errorf("Score not deterministic: got %v, want %v", again.Score, first.Score)
		}
		if again.Features != first.Features {
			t.Errorf("Features not deterministic: got %+v, want %+v", again.Features, first.Features)
		}
	}
}

func TestScoringService_Score_Bounds(t *testing.T) {
	scoring := NewScoringService(models.DefaultScoringWeights())

	tests := []struct {
		name string
		a, b *models.UserProfile
		ca   models.MatchConstraints
		cb   models.MatchConstraints
	}{
		{
			name: "Identical well-matched pair",
			a:    mentorProfile(),
			b:    menteeProfile(),
			ca:   models.MatchConstraints{Roles: []string{models.RoleMentee}},
			cb:   models.MatchConstraints{Roles: []string{models.RoleMentor}},
		},
		{
			name: "Nothing in common",
			a: &models.UserProfile{
				UserID: "a", Role: models.RoleMentor, ExperienceYears: 25,
				Industry: "finance", TimezoneOffset: -8,
				Languages: []string{"fr"}, Interests: []string{"trading"},
			},
			b: &models.UserProfile{
				UserID: "b", Role: models.RoleMentor, ExperienceYears: 0,
				Industry: "healthcare", TimezoneOffset: 9,
				Languages: []string{"ja"}, Interests: []string{"nursing"},
			},
			ca: models.MatchConstraints{Roles: []string{models.RoleMentor}},
			cb: models.MatchConstraints{Roles: []string{models.RoleMentor}},
		},
		{
			name: "Empty profiles",
			a:    &models.UserProfile{UserID: "a"},
			b:    &models.UserProfile{UserID: "b"},
			ca:   models.MatchConstraints{},
			cb:   models.MatchConstraints{},
		},
		{
			name: "Org constraint violated",
			a:    mentorProfile(),
			b:    menteeProfile(),
			ca:   models.MatchConstraints{OrgConstraint: strPtr("acme")},
			cb:   models.MatchConstraints{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scoring.Score(tt.a, tt.b, tt.ca, tt.cb)
			if err != nil {
				t.Fatalf("Score returned error: %v", err)
			}
			if result.Score < 0 || result.Score > 1 {
				t.Errorf("Score out of bounds: %v", result.Score)
			}

			features := []float64{
				result.Features.InterestOverlap,
				result.Features.RoleComplementarity,
				result.Features.ExperienceGap,
				result.Features.IndustryMatch,
				result.Features.TimezoneCompatibility,
				result.Features.OrgConstraintMatch,
				result.Features.LanguageOverlap,
			}
			for i, f := range features {
				if f < 0 || f > 1 {
					t.Errorf("Feature %d out of bounds: %v", i, f)
				}
			}
		})
	}
}

func TestScoringService_Score_Symmetric(t *testing.T) {
	scoring := NewScoringService(models.DefaultScoringWeights())

	a := mentorProfile()
	b := menteeProfile()
	ca := models.MatchConstraints{Roles: []string{models.RoleMentee}, Interests: []string{"ai"}}
	cb := models.MatchConstraints{Roles: []string{models.RoleMentor}, Interests: []string{"ai"}}

	forward, err := scoring.Score(a, b, ca, cb)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	backward, err := scoring.Score(b, a, cb, ca)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if forward.Score != backward.Score {
		t.Errorf("Score not symmetric: forward %v, backward %v", forward.Score, backward.Score)
	}
}

func TestScoringService_Score_MissingProfile(t *testing.T) {
	scoring := NewScoringService(models.DefaultScoringWeights())

	if _, err := scoring.Score(nil, menteeProfile(), models.MatchConstraints{}, models.MatchConstraints{}); err != ErrUserDataNotFound {
		t.Errorf("expected ErrUserDataNotFound for nil first profile, got %v", err)
	}
	if _, err := scoring.Score(mentorProfile(), nil, models.MatchConstraints{}, models.MatchConstraints{}); err != ErrUserDataNotFound {
		t.Errorf("expected ErrUserDataNotFound for nil second profile, got %v", err)
	}
}

func TestScoringService_Score_MentorMenteePair(t *testing.T) {
	scoring := NewScoringService(models.DefaultScoringWeights())

	// 상보적 역할 + 공통 관심사 + 같은 산업/시간대/언어
	result, err := scoring.Score(
		mentorProfile(),
		menteeProfile(),
		models.MatchConstraints{Roles: []string{models.RoleMentee}, Interests: []string{"ai"}},
		models.MatchConstraints{Roles: []string{models.RoleMentor}, Interests: []string{"ai"}},
	)
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}

	if result.Score < 0.5 {
		t.Errorf("Expected strong pair to score at least 0.5, got %v", result.Score)
	}
	if result.Features.RoleComplementarity != 1.0 {
		t.Errorf("Expected full role complementarity, got %v", result.Features.RoleComplementarity)
	}
	if result.Explanation == "" {
		t.Error("Expected non-empty explanation")
	}
}

func TestScoringService_RoleComplementarity(t *testing.T) {
	tests := []struct {
		name     string
		rolesA   []string
		rolesB   []string
		expected float64
	}{
		{"Mentor-mentee", []string{models.RoleMentor}, []string{models.RoleMentee}, 1.0},
		{"Mentee-mentor", []string{models.RoleMentee}, []string{models.RoleMentor}, 1.0},
		{"Peer-peer", []string{models.RolePeer}, []string{models.RolePeer}, 0.8},
		{"Mentor-mentor", []string{models.RoleMentor}, []string{models.RoleMentor}, 0.1},
		{"Mentee-mentee", []string{models.RoleMentee}, []string{models.RoleMentee}, 0.1},
		{"No constraints", nil, nil, 0.5},
		{"One side empty", []string{models.RoleMentor}, nil, 0.5},
		{"Peer-mentor", []string{models.RolePeer}, []string{models.RoleMentor}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := roleComplementarity(tt.rolesA, tt.rolesB)
			if actual != tt.expected {
				t.Errorf("roleComplementarity(%v, %v) = %v, want %v",
					tt.rolesA, tt.rolesB, actual, tt.expected)
			}
		})
	}
}

func TestScoringService_TimezoneCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		offsetA  int
		offsetB  int
		expected float64
	}{
		{"Same timezone", 1, 1, 1.0},
		{"Six hours apart", 0, 6, 0.5},
		{"Twelve hours apart", -6, 6, 0.0},
		{"Wraps around midnight", -11, 11, 1.0 - 2.0/12.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := timezoneCompatibility(tt.offsetA, tt.offsetB)
			if diff := actual - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("timezoneCompatibility(%d, %d) = %v, want %v",
					tt.offsetA, tt.offsetB, actual, tt.expected)
			}
		})
	}
}

func TestScoringService_ExperienceGap(t *testing.T) {
	if score := experienceGapScore(5, 5); score != 1.0 {
		t.Errorf("Zero gap should score 1.0, got %v", score)
	}
	if score := experienceGapScore(0, 30); score != 0.0 {
		t.Errorf("Gap beyond cap should score 0.0, got %v", score)
	}
	closer := experienceGapScore(10, 12)
	wider := experienceGapScore(10, 20)
	if closer <= wider {
		t.Errorf("Smaller gap should score higher: %v vs %v", closer, wider)
	}
}

func TestScoringService_OrgConstraint(t *testing.T) {
	inOrg := mentorProfile()
	inOrg.OrgID = strPtr("acme")
	outside := menteeProfile()

	// 위반: 한쪽이 acme 소속을 요구하는데 상대가 무소속
	violated := orgConstraintMatch(inOrg, outside,
		models.MatchConstraints{OrgConstraint: strPtr("acme")},
		models.MatchConstraints{})
	if violated != 0.0 {
		t.Errorf("Violated org constraint should score 0.0, got %v", violated)
	}

	// 충족: 양쪽 모두 acme 소속이고 양쪽 모두 요구
	other := menteeProfile()
	other.OrgID = strPtr("ACME") // 대소문자 무시
	satisfied := orgConstraintMatch(inOrg, other,
		models.MatchConstraints{OrgConstraint: strPtr("acme")},
		models.MatchConstraints{OrgConstraint: strPtr("acme")})
	if satisfied != 1.0 {
		t.Errorf("Satisfied org constraint should score 1.0, got %v", satisfied)
	}

	// 중립: 아무도 요구하지 않음
	neutral := orgConstraintMatch(inOrg, outside, models.MatchConstraints{}, models.MatchConstraints{})
	if neutral != 0.8 {
		t.Errorf("No org constraint should score 0.8, got %v", neutral)
	}
}
