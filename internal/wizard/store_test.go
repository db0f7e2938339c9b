package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
)

func TestNewStore_InitialState(t *testing.T) {
	store := NewStore()

	steps := store.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, "Upload do XML", steps[StepUpload].Label)
	assert.Equal(t, "Dados do XML", steps[StepDadosXML].Label)
	assert.Equal(t, "Dados do Pedido", steps[StepDadosPedido].Label)
	assert.Equal(t, "Resultado", steps[StepResultado].Label)
	for _, step := range steps {
		assert.Equal(t, StatusPendente, step.Status)
		assert.Empty(t, step.Motivo)
	}
	assert.Equal(t, StepUpload, store.CurrentStep())

	_, ok := store.SolicitacaoID()
	assert.False(t, ok)
	assert.Nil(t, store.XMLData())
}

func TestStore_UpdateStepStatus(t *testing.T) {
	store := NewStore()

	store.UpdateStepStatus(StepDadosPedido, StatusRecusado, "CPF inválido")

	steps := store.Steps()
	assert.Equal(t, StatusRecusado, steps[StepDadosPedido].Status)
	assert.Equal(t, "CPF inválido", steps[StepDadosPedido].Motivo)

	// Re-approving clears the motivo passed by the caller.
	store.UpdateStepStatus(StepDadosPedido, StatusAprovado, "")
	steps = store.Steps()
	assert.Equal(t, StatusAprovado, steps[StepDadosPedido].Status)
	assert.Empty(t, steps[StepDadosPedido].Motivo)
}

func TestStore_UpdateStepStatusPanicsOutOfRange(t *testing.T) {
	store := NewStore()

	assert.Panics(t, func() { store.UpdateStepStatus(4, StatusAprovado, "") })
	assert.Panics(t, func() { store.UpdateStepStatus(-1, StatusAprovado, "") })
}

func TestStore_SetCurrentStep(t *testing.T) {
	store := NewStore()

	store.SetCurrentStep(StepDadosPedido)
	assert.Equal(t, StepDadosPedido, store.CurrentStep())

	// Moving backwards is allowed.
	store.SetCurrentStep(StepDadosXML)
	assert.Equal(t, StepDadosXML, store.CurrentStep())

	assert.Panics(t, func() { store.SetCurrentStep(4) })
}

func TestStore_SolicitacaoID(t *testing.T) {
	store := NewStore()

	store.SetSolicitacaoID(42)
	id, ok := store.SolicitacaoID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestStore_StepsReturnsCopy(t *testing.T) {
	store := NewStore()

	steps := store.Steps()
	steps[StepUpload].Status = StatusAprovado

	assert.Equal(t, StatusPendente, store.Steps()[StepUpload].Status)
}

func TestStore_ResetAll(t *testing.T) {
	store := NewStore()
	store.SetXMLData(&fiscal.XmlData{ID: "doc-1", ValorTotal: 150})
	store.SetSolicitacaoID(42)
	store.SetCurrentStep(StepResultado)
	store.UpdateStepStatus(StepDadosPedido, StatusRecusado, "Saldo insuficiente")

	store.ResetAll()

	for _, step := range store.Steps() {
		assert.Equal(t, StatusPendente, step.Status)
		assert.Empty(t, step.Motivo)
	}
	assert.Equal(t, StepUpload, store.CurrentStep())
	_, ok := store.SolicitacaoID()
	assert.False(t, ok)
	assert.Nil(t, store.XMLData())

	// Resetting an already clean store is a no-op.
	store.ResetAll()
	assert.Equal(t, StepUpload, store.CurrentStep())
}

func TestStore_Snapshot(t *testing.T) {
	store := NewStore()
	store.SetSolicitacaoID(7)
	store.SetCurrentStep(StepResultado)
	store.UpdateStepStatus(StepResultado, StatusAprovado, "")

	snap := store.Snapshot()
	assert.Equal(t, StepResultado, snap.CurrentStep)
	require.NotNil(t, snap.SolicitacaoID)
	assert.Equal(t, int64(7), *snap.SolicitacaoID)
	assert.Equal(t, StatusAprovado, snap.Steps[StepResultado].Status)

	// The snapshot is detached from later mutations.
	store.UpdateStepStatus(StepResultado, StatusRecusado, "Erro")
	assert.Equal(t, StatusAprovado, snap.Steps[StepResultado].Status)
}
