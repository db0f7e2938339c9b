// Package wizard holds the shared state of a solicitação wizard pass:
// the ordered steps with their statuses, the active step, the extracted
// document data and the identifier of the submitted solicitação. It is
// the single source of truth for wizard progress; the submission
// controller and the status poller mutate it only through the named
// operations below.
package wizard

import (
	"fmt"
	"sync"

	"github.com/fiscaldesk/solicitacao/internal/fiscal"
)

// StepStatus is the review status of one wizard step.
type StepStatus string

const (
	StatusPendente StepStatus = "PENDENTE"
	StatusAprovado StepStatus = "APROVADO"
	StatusRecusado StepStatus = "RECUSADO"
)

// Fixed step indices of the wizard.
const (
	StepUpload      = 0
	StepDadosXML    = 1
	StepDadosPedido = 2
	StepResultado   = 3
)

// StepInfo describes one wizard step. Motivo is meaningful only while
// Status is RECUSADO; callers updating the status are responsible for
// passing the motivo they want recorded (usually empty).
type StepInfo struct {
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
	Motivo string     `json:"motivo,omitempty"`
}

// Snapshot is a point-in-time copy of the wizard state for rendering.
type Snapshot struct {
	Steps         []StepInfo `json:"steps"`
	CurrentStep   int        `json:"currentStep"`
	SolicitacaoID *int64     `json:"solicitacaoId,omitempty"`
}

func defaultSteps() []StepInfo {
	return []StepInfo{
		{Label: "Upload do XML", Status: StatusPendente},
		{Label: "Dados do XML", Status: StatusPendente},
		{Label: "Dados do Pedido", Status: StatusPendente},
		{Label: "Resultado", Status: StatusPendente},
	}
}

// Store is the wizard state container. Safe for concurrent use; one
// instance serves one wizard session.
type Store struct {
	mu             sync.RWMutex
	steps          []StepInfo
	currentStep    int
	xmlData        *fiscal.XmlData
	solicitacaoID  int64
	hasSolicitacao bool
}

// NewStore creates a store with all steps PENDENTE and the first step
// active.
func NewStore() *Store {
	return &Store{steps: defaultSteps()}
}

// UpdateStepStatus sets the status and motivo of the step at index. An
// out-of-range index is a programming error and panics.
func (s *Store) UpdateStepStatus(index int, status StepStatus, motivo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustBeInBounds(index)
	s.steps[index].Status = status
	s.steps[index].Motivo = motivo
}

// SetCurrentStep moves the active step. Revisiting earlier steps is
// allowed; an out-of-range index panics.
func (s *Store) SetCurrentStep(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustBeInBounds(index)
	s.currentStep = index
}

// CurrentStep returns the active step index.
func (s *Store) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentStep
}

// Steps returns a copy of the step list.
func (s *Store) Steps() []StepInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := make([]StepInfo, len(s.steps))
	copy(steps, s.steps)
	return steps
}

// SetSolicitacaoID records the identifier returned by the backend.
// Overwrites are permitted; the submit sequence only reaches this point
// once per pass.
func (s *Store) SetSolicitacaoID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solicitacaoID = id
	s.hasSolicitacao = true
}

// SolicitacaoID returns the recorded identifier, if any.
func (s *Store) SolicitacaoID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.solicitacaoID, s.hasSolicitacao
}

// SetXMLData caches the extracted document data produced by the
// ingestion step.
func (s *Store) SetXMLData(data *fiscal.XmlData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xmlData = data
}

// XMLData returns the cached document data, or nil before ingestion.
func (s *Store) XMLData() *fiscal.XmlData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.xmlData
}

// ResetAll restores the initial state so a new wizard pass starts
// clean: all steps PENDENTE with motivo cleared, first step active, no
// solicitação id, no cached document. Idempotent.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = defaultSteps()
	s.currentStep = 0
	s.xmlData = nil
	s.solicitacaoID = 0
	s.hasSolicitacao = false
}

// Snapshot returns a copy of the observable state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Steps:       make([]StepInfo, len(s.steps)),
		CurrentStep: s.currentStep,
	}
	copy(snap.Steps, s.steps)
	if s.hasSolicitacao {
		id := s.solicitacaoID
		snap.SolicitacaoID = &id
	}
	return snap
}

func (s *Store) mustBeInBounds(index int) {
	if index < 0 || index >= len(s.steps) {
		panic(fmt.Sprintf("wizard: step index %d out of range [0,%d)", index, len(s.steps)))
	}
}
