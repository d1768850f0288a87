package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/careguardian/careguardian-api/internal/model"
)

// AssistantRepo stores chat transcripts and symptom checks.
type AssistantRepo struct{ DB *sql.DB }

func NewAssistantRepo(db *sql.DB) *AssistantRepo { return &AssistantRepo{DB: db} }

func (r *AssistantRepo) SaveMessage(ctx context.Context, m model.ChatMessage) (model.ChatMessage, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO chat_messages (user_id, message, is_user_message, created_at) VALUES (?,?,?,?)",
		m.UserID, m.Message, m.IsUserMessage, m.CreatedAt.UTC())
	if err != nil {
		return model.ChatMessage{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ChatMessage{}, err
	}
	m.ID = uint64(id)
	return m, nil
}

// RecentMessages returns the user's last limit messages, oldest first.
func (r *AssistantRepo) RecentMessages(ctx context.Context, userID uint64, limit int) ([]model.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, message, is_user_message, created_at FROM (
		   SELECT id, user_id, message, is_user_message, created_at FROM chat_messages
		   WHERE user_id=? ORDER BY id DESC LIMIT ?
		 ) recent ORDER BY id ASC`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.IsUserMessage, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AssistantRepo) SaveSymptomCheck(ctx context.Context, c model.SymptomCheck) (model.SymptomCheck, error) {
	symptoms, err := json.Marshal(c.Symptoms)
	if err != nil {
		return model.SymptomCheck{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO symptom_checks (user_id, symptoms, diagnosis, risk_level, recommendations, severity, created_at) VALUES (?,?,?,?,?,?,?)",
		c.UserID, string(symptoms), c.Diagnosis, c.RiskLevel, c.Recommendations, c.Severity, c.CreatedAt.UTC())
	if err != nil {
		return model.SymptomCheck{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.SymptomCheck{}, err
	}
	c.ID = uint64(id)
	return c, nil
}

const symptomColumns = "id, user_id, symptoms, diagnosis, risk_level, recommendations, severity, created_at"

func (r *AssistantRepo) ListSymptomChecks(ctx context.Context, userID uint64, limit int) ([]model.SymptomCheck, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+symptomColumns+" FROM symptom_checks WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ?", userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SymptomCheck
	for rows.Next() {
		c, err := scanSymptomCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AssistantRepo) GetSymptomCheck(ctx context.Context, id uint64) (model.SymptomCheck, error) {
	return scanSymptomCheck(r.DB.QueryRowContext(ctx, "SELECT "+symptomColumns+" FROM symptom_checks WHERE id=?", id))
}

func scanSymptomCheck(row rowScanner) (model.SymptomCheck, error) {
	var (
		c        model.SymptomCheck
		symptoms []byte
		severity sql.NullString
	)
	if err := row.Scan(&c.ID, &c.UserID, &symptoms, &c.Diagnosis, &c.RiskLevel, &c.Recommendations, &severity, &c.CreatedAt); err != nil {
		return model.SymptomCheck{}, mapErr(err)
	}
	if err := json.Unmarshal(symptoms, &c.Symptoms); err != nil {
		return model.SymptomCheck{}, fmt.Errorf("decode symptoms for check %d: %w", c.ID, err)
	}
	c.Severity = severity.String
	return c, nil
}
