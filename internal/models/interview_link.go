package models

import "time"

// Stitch processing states recorded on the link row.
const (
	ProcessingNone      = ""
	ProcessingRunning   = "processing"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

// InterviewLink is the token-addressed record of one invitation.
// "used" and "expired" are independent axes: a used link stays readable,
// an expired link is rejected regardless of used state. Links are never
// deleted; they are retained for audit and re-viewing.
type InterviewLink struct {
	ID             int64     `gorm:"column:id;primaryKey" json:"id"`
	CandidateEmail string    `gorm:"column:candidate_email;type:text;not null" json:"candidate_email"`
	InterviewID    int64     `gorm:"column:interview_id;index;not null" json:"interview_id"`
	UniqueToken    string    `gorm:"column:unique_token;type:text;uniqueIndex;not null" json:"unique_token"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	Used           bool      `gorm:"column:used;default:false" json:"used"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`

	// Durable stitch cache. Once StitchedVideoURL is set it never expires
	// and is never invalidated; answers are immutable after the link is used.
	StitchedVideoURL *string    `gorm:"column:stitched_video_url;type:text" json:"stitched_video_url,omitempty"`
	StitchedAt       *time.Time `gorm:"column:stitched_at" json:"stitched_at,omitempty"`
	ProcessingStatus string     `gorm:"column:processing_status;type:text;default:''" json:"processing_status"`
}

func (InterviewLink) TableName() string { return "interview_links" }

// IsExpired reports the time axis of the link state machine.
func (l *InterviewLink) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// IsWritable: the candidate may still start the interview flow.
func (l *InterviewLink) IsWritable(now time.Time) bool {
	return !l.Used && !l.IsExpired(now)
}

// IsReadable: questions and answers may still be fetched. A used link
// remains readable because the client marks it used before uploading.
func (l *InterviewLink) IsReadable(now time.Time) bool {
	return !l.IsExpired(now)
}

// LinkDetail is a link enriched with its role and owning interviewer,
// as returned by the joined token lookup. The enrichment fields are
// zero-valued when the degraded fallback path was taken.
type LinkDetail struct {
	InterviewLink
	RoleID           int64  `json:"role_id"`
	RoleTitle        string `json:"role_title"`
	InterviewerID    int64  `json:"interviewer_id,omitempty"`
	InterviewerName  string `json:"interviewer_name,omitempty"`
	InterviewerEmail string `json:"interviewer_email,omitempty"`
}

// LinkWithCandidate is the per-role listing row.
type LinkWithCandidate struct {
	InterviewLink
	CandidateName string `json:"candidate_name"`
}
