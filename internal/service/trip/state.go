package trip

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
)

const stateEvaluating = "evaluating"

const (
	eventRangeSufficient   = "range_sufficient"
	eventRangeInsufficient = "range_insufficient"
	eventStopsPlaced       = "stops_placed"
	eventFallback          = "fallback"
)

// planMachine tracks the planner through
// evaluating -> no_charge_needed | charge_required -> stops_planned | stops_planned_via_fallback
type planMachine struct {
	fsm *fsm.FSM
}

func newPlanMachine(log *zap.Logger) *planMachine {
	return &planMachine{
		fsm: fsm.NewFSM(
			stateEvaluating,
			fsm.Events{
				{Name: eventRangeSufficient, Src: []string{stateEvaluating}, Dst: string(domain.PlanStatusNoChargeNeeded)},
				{Name: eventRangeInsufficient, Src: []string{stateEvaluating}, Dst: string(domain.PlanStatusChargeRequired)},
				{Name: eventStopsPlaced, Src: []string{string(domain.PlanStatusChargeRequired)}, Dst: string(domain.PlanStatusStopsPlanned)},
				{Name: eventFallback, Src: []string{string(domain.PlanStatusChargeRequired)}, Dst: string(domain.PlanStatusViaFallback)},
			},
			fsm.Callbacks{
				"after_event": func(ctx context.Context, e *fsm.Event) {
					if log != nil {
						log.Debug("Planner state changed", zap.String("from", e.Src), zap.String("to", e.Dst))
					}
				},
			},
		),
	}
}

func (m *planMachine) fire(event string) error {
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("planner transition %s: %w", event, err)
	}
	return nil
}

func (m *planMachine) status() domain.PlanStatus {
	return domain.PlanStatus(m.fsm.Current())
}
