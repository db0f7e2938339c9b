package repository

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE submission_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			solicitacao_id INTEGER,
			evento TEXT NOT NULL,
			resultado TEXT NOT NULL,
			detalhes TEXT NOT NULL DEFAULT '',
			valor_total REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)
	return db
}

func TestSubmissionLogRepository_Create(t *testing.T) {
	repo := NewSubmissionLogRepository(setupTestDB(t), zap.NewNop())

	id := int64(42)
	entry := &SubmissionLog{
		SessionID:     "sess-1",
		SolicitacaoID: &id,
		Evento:        EventoEnvio,
		Resultado:     ResultadoSucesso,
		ValorTotal:    150,
	}

	require.NoError(t, repo.Create(entry))
	assert.NotZero(t, entry.ID)
}

func TestSubmissionLogRepository_CreateWithoutSolicitacao(t *testing.T) {
	repo := NewSubmissionLogRepository(setupTestDB(t), zap.NewNop())

	// Transport failures are logged before any id exists.
	entry := &SubmissionLog{
		SessionID: "sess-1",
		Evento:    EventoEnvio,
		Resultado: ResultadoErroConexao,
		Detalhes:  "Erro de conexão com o servidor",
	}

	require.NoError(t, repo.Create(entry))

	entries, err := repo.ListBySession("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].SolicitacaoID)
	assert.Equal(t, ResultadoErroConexao, entries[0].Resultado)
}

func TestSubmissionLogRepository_ListBySession(t *testing.T) {
	repo := NewSubmissionLogRepository(setupTestDB(t), zap.NewNop())

	id := int64(42)
	require.NoError(t, repo.Create(&SubmissionLog{
		SessionID: "sess-1", SolicitacaoID: &id,
		Evento: EventoEnvio, Resultado: ResultadoSucesso, ValorTotal: 150,
	}))
	require.NoError(t, repo.Create(&SubmissionLog{
		SessionID: "sess-1", SolicitacaoID: &id,
		Evento: EventoConsulta, Resultado: ResultadoRecusado, Detalhes: "Saldo insuficiente",
	}))
	require.NoError(t, repo.Create(&SubmissionLog{
		SessionID: "sess-2", Evento: EventoEnvio, Resultado: ResultadoErroConexao,
	}))

	entries, err := repo.ListBySession("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, EventoConsulta, entries[0].Evento)
	assert.Equal(t, "Saldo insuficiente", entries[0].Detalhes)
	assert.Equal(t, EventoEnvio, entries[1].Evento)
	require.NotNil(t, entries[1].SolicitacaoID)
	assert.Equal(t, int64(42), *entries[1].SolicitacaoID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestSubmissionLogRepository_ListBySessionLimit(t *testing.T) {
	repo := NewSubmissionLogRepository(setupTestDB(t), zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(&SubmissionLog{
			SessionID: "sess-1", Evento: EventoConsulta, Resultado: ResultadoRecusado,
		}))
	}

	entries, err := repo.ListBySession("sess-1", 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSubmissionLogRepository_ListUnknownSession(t *testing.T) {
	repo := NewSubmissionLogRepository(setupTestDB(t), zap.NewNop())

	entries, err := repo.ListBySession("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
