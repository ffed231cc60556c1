package models

import "time"

// 프로필에 선언 가능한 역할
const (
	RoleMentor = "mentor"
	RoleMentee = "mentee"
	RolePeer   = "peer"
)

// UserProfile 매칭 점수 계산에 쓰이는 읽기 전용 사용자 속성
type UserProfile struct {
	UserID          string    `db:"user_id" json:"userId"`
	Role            string    `db:"role" json:"role"`
	ExperienceYears int       `db:"experience_years" json:"experienceYears"`
	Industry        string    `db:"industry" json:"industry"`
	TimezoneOffset  int       `db:"timezone_offset" json:"timezoneOffset"` // UTC 오프셋 (시간)
	OrgID           *string   `db:"org_id" json:"orgId,omitempty"`
	Languages       []string  `db:"languages" json:"languages"`
	Interests       []string  `db:"interests" json:"interests"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// UpdateProfileRequest 프로필 갱신 요청
type UpdateProfileRequest struct {
	Role            string   `json:"role" binding:"required"`
	ExperienceYears int      `json:"experienceYears"`
	Industry        string   `json:"industry"`
	TimezoneOffset  int      `json:"timezoneOffset"`
	OrgID           *string  `json:"orgId"`
	Languages       []string `json:"languages"`
	Interests       []string `json:"interests"`
}
