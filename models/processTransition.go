package models

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/utils"
)

// TransitionTable decides which status may follow which. The default is fully
// permissive so staff can override any stage manually; operators tighten it
// through PROCESS_TRANSITIONS_STRICT or PROCESS_TRANSITIONS.
type TransitionTable struct {
	permissive bool
	edges      map[ProcessStatus]map[ProcessStatus]bool
}

func PermissiveTransitions() TransitionTable {
	return TransitionTable{permissive: true}
}

// NewTransitionTable builds a restrictive table from an adjacency list.
func NewTransitionTable(adjacency map[ProcessStatus][]ProcessStatus) TransitionTable {
	edges := make(map[ProcessStatus]map[ProcessStatus]bool, len(adjacency))
	for from, tos := range adjacency {
		set := make(map[ProcessStatus]bool, len(tos))
		for _, to := range tos {
			set[to] = true
		}
		edges[from] = set
	}
	return TransitionTable{edges: edges}
}

// RecommendedTransitions is the forward workflow. Any open stage may be
// cancelled or flagged as an error, ERRO may re-enter the workflow, and
// FINALIZADO / CANCELADO are terminal.
func RecommendedTransitions() TransitionTable {
	escape := []ProcessStatus{ProcessStatusCancelled, ProcessStatusError}
	with := func(next ...ProcessStatus) []ProcessStatus {
		return append(next, escape...)
	}
	return NewTransitionTable(map[ProcessStatus][]ProcessStatus{
		ProcessStatusAwaitingDocuments:  with(ProcessStatusDocumentsReceived),
		ProcessStatusDocumentsReceived:  with(ProcessStatusUnderAnalysis, ProcessStatusAwaitingDocuments),
		ProcessStatusUnderAnalysis:      with(ProcessStatusAwaitingPayment, ProcessStatusProcessing, ProcessStatusAwaitingDocuments),
		ProcessStatusAwaitingPayment:    with(ProcessStatusPaymentConfirmed),
		ProcessStatusPaymentConfirmed:   with(ProcessStatusProcessing, ProcessStatusAwaitingInspection),
		ProcessStatusProcessing:         with(ProcessStatusAwaitingInspection, ProcessStatusFinalized),
		ProcessStatusAwaitingInspection: with(ProcessStatusInspectionDone),
		ProcessStatusInspectionDone:     with(ProcessStatusProcessing, ProcessStatusFinalized),
		ProcessStatusError: {
			ProcessStatusAwaitingDocuments, ProcessStatusUnderAnalysis, ProcessStatusAwaitingPayment,
			ProcessStatusProcessing, ProcessStatusCancelled,
		},
		ProcessStatusFinalized: {},
		ProcessStatusCancelled: {},
	})
}

// ParseTransitionTable reads {"FROM":["TO",...]}. Every status must be known.
func ParseTransitionTable(raw string) (TransitionTable, error) {
	var adjacency map[string][]string
	if err := json.Unmarshal([]byte(raw), &adjacency); err != nil {
		return TransitionTable{}, fmt.Errorf("invalid transition table: %w", err)
	}
	parsed := make(map[ProcessStatus][]ProcessStatus, len(adjacency))
	for from, tos := range adjacency {
		fromStatus := NormalizeProcessStatus(from)
		if !fromStatus.IsValid() {
			return TransitionTable{}, fmt.Errorf("invalid transition table: unknown status %q", from)
		}
		for _, to := range tos {
			toStatus := NormalizeProcessStatus(to)
			if !toStatus.IsValid() {
				return TransitionTable{}, fmt.Errorf("invalid transition table: unknown status %q", to)
			}
			parsed[fromStatus] = append(parsed[fromStatus], toStatus)
		}
		if _, ok := parsed[fromStatus]; !ok {
			parsed[fromStatus] = []ProcessStatus{}
		}
	}
	return NewTransitionTable(parsed), nil
}

// Allows reports whether from -> to is permitted. Re-setting the same status always is.
func (t TransitionTable) Allows(from, to ProcessStatus) bool {
	if from == to || t.permissive {
		return true
	}
	return t.edges[from][to]
}

func (t TransitionTable) Check(from, to ProcessStatus) error {
	if t.Allows(from, to) {
		return nil
	}
	return utils.NewValidationError("status", fmt.Sprintf("transition from %s to %s is not allowed", from, to))
}

var (
	transitionsOnce  sync.Once
	activeTransition TransitionTable
)

// ActiveTransitions loads the configured table once per process.
// A malformed PROCESS_TRANSITIONS is logged and the permissive default kept.
func ActiveTransitions() TransitionTable {
	transitionsOnce.Do(func() {
		activeTransition = loadTransitionTable()
	})
	return activeTransition
}

func loadTransitionTable() TransitionTable {
	if raw := config.ProcessTransitionsJSON(); raw != "" {
		table, err := ParseTransitionTable(raw)
		if err == nil {
			return table
		}
		config.LogError(config.GetLogger(), "ProcessTransition", "loadTransitionTable", "PROCESS_TRANSITIONS ignored", raw, err)
	}
	if config.StrictProcessTransitions() {
		return RecommendedTransitions()
	}
	return PermissiveTransitions()
}
