package models

import (
	"time"

	"gorm.io/datatypes"
)

// VideoAnswer holds one recorded answer. At most one row exists per
// (interview_link_token, question_id); re-submission overwrites the row
// and refreshes created_at (last write wins).
type VideoAnswer struct {
	ID                 int64          `gorm:"column:id;primaryKey" json:"id"`
	InterviewLinkToken string         `gorm:"column:interview_link_token;type:text;uniqueIndex:idx_video_answers_token_question;not null" json:"interview_link_token"`
	QuestionID         int64          `gorm:"column:question_id;uniqueIndex:idx_video_answers_token_question;not null" json:"question_id"`
	CandidateEmail     string         `gorm:"column:candidate_email;type:text;not null" json:"candidate_email"`
	VideoURL           string         `gorm:"column:video_url;type:text" json:"video_url"`
	ObjectName         string         `gorm:"column:object_name;type:text" json:"object_name"`
	RecordingDuration  *float64       `gorm:"column:recording_duration" json:"recording_duration,omitempty"`
	Metadata           datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (VideoAnswer) TableName() string { return "video_answers" }

// VideoAnswerWithQuestion joins the answer with its question text and order.
type VideoAnswerWithQuestion struct {
	VideoAnswer
	QuestionText  string `json:"question_text"`
	QuestionOrder int    `json:"question_order"`
}

// ResponseSummary is one row of the interviewer aggregate view: a used
// link with at least one answer, grouped by token.
type ResponseSummary struct {
	UniqueToken    string     `json:"unique_token"`
	CandidateEmail string     `json:"candidate_email"`
	RoleID         int64      `json:"role_id"`
	RoleTitle      string     `json:"role_title"`
	InvitedAt      time.Time  `json:"invited_at"`
	AnswerCount    int        `json:"answer_count"`
	LastAnswerAt   *time.Time `json:"last_answer_at,omitempty"`
}
