// Package repository persists the operational history of the wizard:
// an append-only log of submission attempts and poll outcomes. Wizard
// state itself is never persisted; the log exists for diagnostics and
// audit, and a write failure must never fail the user's action.
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Events recorded in the submission log.
const (
	EventoEnvio    = "ENVIO"
	EventoConsulta = "CONSULTA"
)

// Outcomes recorded in the submission log.
const (
	ResultadoSucesso     = "SUCESSO"
	ResultadoRecusado    = "RECUSADO"
	ResultadoErroConexao = "ERRO_CONEXAO"
)

// SubmissionLog is one logged event.
type SubmissionLog struct {
	ID            int64
	SessionID     string
	SolicitacaoID *int64
	Evento        string
	Resultado     string
	Detalhes      string
	ValorTotal    float64
	CreatedAt     time.Time
}

// SubmissionLogRepository handles submission-log database operations.
type SubmissionLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionLogRepository creates a new submission log repository.
func NewSubmissionLogRepository(db *sql.DB, logger *zap.Logger) *SubmissionLogRepository {
	return &SubmissionLogRepository{db: db, logger: logger}
}

// Create appends a log entry.
func (r *SubmissionLogRepository) Create(entry *SubmissionLog) error {
	query := `
		INSERT INTO submission_log (
			session_id, solicitacao_id, evento, resultado, detalhes, valor_total
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	var solicitacaoID sql.NullInt64
	if entry.SolicitacaoID != nil {
		solicitacaoID = sql.NullInt64{Int64: *entry.SolicitacaoID, Valid: true}
	}

	result, err := r.db.Exec(query,
		entry.SessionID,
		solicitacaoID,
		entry.Evento,
		entry.Resultado,
		entry.Detalhes,
		entry.ValorTotal,
	)
	if err != nil {
		r.logger.Error("Failed to create submission log entry", zap.Error(err))
		return fmt.Errorf("failed to create submission log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListBySession returns the most recent entries for one session, newest
// first.
func (r *SubmissionLogRepository) ListBySession(sessionID string, limit int) ([]*SubmissionLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, solicitacao_id, evento, resultado, detalhes, valor_total, created_at
		FROM submission_log
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, sessionID, limit)
	if err != nil {
		r.logger.Error("Failed to list submission log entries",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list submission log entries: %w", err)
	}
	defer rows.Close()

	var entries []*SubmissionLog
	for rows.Next() {
		var entry SubmissionLog
		var solicitacaoID sql.NullInt64
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&solicitacaoID,
			&entry.Evento,
			&entry.Resultado,
			&entry.Detalhes,
			&entry.ValorTotal,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission log entry: %w", err)
		}
		if solicitacaoID.Valid {
			id := solicitacaoID.Int64
			entry.SolicitacaoID = &id
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
