// Package model defines the core data types shared by the gateway, the engine and its workers.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxAnswerTextLength is the longest daily-check answer accepted.
const MaxAnswerTextLength = 1024

// AnswerStatus is the processing state of a daily-check answer.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type AnswerStatus string

const (
	// AnswerStatusPending is set at insert; only a worker moves an answer out of it.
	AnswerStatusPending AnswerStatus = "PENDING_PROCESSING"
	// AnswerStatusProcessed marks a successfully analysed answer.
	AnswerStatusProcessed AnswerStatus = "PROCESSED"
	// AnswerStatusFailed marks an answer whose analysis failed or was abandoned.
	AnswerStatusFailed AnswerStatus = "FAILED"
)

// Valid returns true if the AnswerStatus is valid.
func (s AnswerStatus) Valid() bool {
	return s == AnswerStatusPending || s == AnswerStatusProcessed || s == AnswerStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler for AnswerStatus.
func (s *AnswerStatus) UnmarshalText(text []byte) error {
	v := AnswerStatus(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid AnswerStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Answer is a pre-synthesis daily-check answer owned by one user.
type Answer struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	QuestionID int             `json:"question_id"`
	AnswerText string          `json:"answer_text"`
	Status     AnswerStatus    `json:"status"`
	Analysis   json.RawMessage `json:"analysis,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// SubmitDailyAnswerRequest is the payload of a daily-check submission.
type SubmitDailyAnswerRequest struct {
	QuestionID int    `json:"question_id" validate:"required,min=1"`
	AnswerText string `json:"answer_text" validate:"notblank,nonul,max=1024"`
}

// CreateAnswerRequest is the repository input for inserting an answer.
// The owner is taken from the session the insert runs under.
type CreateAnswerRequest struct {
	QuestionID int
	AnswerText string
}

// AnswerAnalysis is the result the implicit-check job stores on an answer.
type AnswerAnalysis struct {
	WordCount      int      `json:"word_count"`
	CharacterCount int      `json:"character_count"`
	Sentiment      string   `json:"sentiment"`
	Signals        []string `json:"signals,omitempty"`
}

// DailyCheckStatus lists a user's recent answers.
type DailyCheckStatus struct {
	Answers []Answer `json:"answers"`
	Pending int      `json:"pending"`
}
