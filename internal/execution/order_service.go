package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourorg/testnet-trader/internal/domain"
	"github.com/yourorg/testnet-trader/internal/eventlog"
)

// Outcome labels passed to an OutcomeRecorder.
const (
	OutcomeFilled   = "filled"
	OutcomeNew      = "new"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type OutcomeRecorder interface {
	RecordOutcome(outcome string)
}

type OrderService struct {
	sim      *Simulator
	log      eventlog.Sink
	recorder OutcomeRecorder
}

func NewOrderService(sim *Simulator, log eventlog.Sink, recorder OutcomeRecorder) *OrderService {
	return &OrderService{
		sim:      sim,
		log:      log,
		recorder: recorder,
	}
}

// Submit validates req and, if it is valid, executes it. A rejected request
// returns ValidationErrors. Every call appends exactly one log entry.
func (s *OrderService) Submit(ctx context.Context, req domain.RawOrderRequest) (*domain.ExecutionResult, error) {
	order, verrs := Validate(req)
	if verrs != nil {
		s.log.Append(domain.LevelWarn, "Order rejected: "+verrs.Error())
		s.record(OutcomeRejected)
		return nil, verrs
	}
	return s.Execute(ctx, order)
}

// Execute runs an already validated order and appends exactly one log entry.
func (s *OrderService) Execute(ctx context.Context, order ValidatedOrder) (*domain.ExecutionResult, error) {
	result, err := s.sim.Execute(ctx, order)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnvalidatedOrder):
			s.log.Append(domain.LevelError, "Order not placed: it was not validated.")
		case errors.Is(err, ErrNoReferencePrice):
			s.log.Append(domain.LevelError, fmt.Sprintf(
				"No reference price for %s. %s %s order not placed.",
				order.Symbol(), order.OrderType(), order.Side()))
		default:
			s.log.Append(domain.LevelError, fmt.Sprintf(
				"%s %s order for %s failed: %v",
				order.OrderType(), order.Side(), order.Symbol(), err))
		}
		s.record(OutcomeFailed)
		return nil, err
	}

	s.log.Append(domain.LevelInfo, describeFill(order, result))
	if result.Status == domain.StatusFilled {
		s.record(OutcomeFilled)
	} else {
		s.record(OutcomeNew)
	}
	return result, nil
}

func (s *OrderService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordOutcome(outcome)
	}
}

func describeFill(order ValidatedOrder, r *domain.ExecutionResult) string {
	placed := fmt.Sprintf("%s %s order placed: symbol=%s, qty=%s", r.OrderType, r.Side, r.Symbol, r.OrigQty)
	if px, ok := order.Price(); ok {
		placed += ", price=" + px.String()
	}
	if r.Status == domain.StatusFilled {
		return fmt.Sprintf("%s. ID: %d | Status: %s | Avg Price: %s", placed, r.OrderID, r.Status, r.AvgPrice)
	}
	return fmt.Sprintf("%s. ID: %d | Status: %s | Waiting for fill...", placed, r.OrderID, r.Status)
}
