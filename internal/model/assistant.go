package model

import "time"

// ChatMessage is one turn of the first-aid chat transcript.
type ChatMessage struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	Message       string    `json:"message"`
	IsUserMessage bool      `json:"is_user_message"`
	CreatedAt     time.Time `json:"timestamp"`
}

// SymptomCheck stores the outcome of one symptom analysis. Symptoms are
// persisted as a JSON array column.
type SymptomCheck struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	Symptoms        []string  `json:"symptoms"`
	Diagnosis       string    `json:"diagnosis"`
	RiskLevel       string    `json:"risk_level"`
	Recommendations string    `json:"recommendations"`
	Severity        string    `json:"severity,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
