// Package wait implements spin-then-block waiting for data a producer has not
// written yet.
//
// An attempt is retried immediately up to a spin budget. Once the budget is
// spent the caller blocks on a Notifier, and every wake-up only buys another
// round of spinning: a notification is never taken as proof that data arrived.
package wait

import (
	"context"

	"github.com/pkg/errors"
)

//go:generate mockgen -source wait.go -destination ../mocks/notifier.go -package mocks

// DefaultBudget is the number of immediate attempts made before blocking
const DefaultBudget = 50

var (
	// ErrGaveUp is returned when the spin budget is spent and there is nothing to block on
	ErrGaveUp = errors.New("gave up spinning but have no change notification")
	// ErrSubscribe is returned when a change notification subscription can not be set up
	ErrSubscribe = errors.New("unable to subscribe to file changes")
)

// Notifier blocks until the watched file may have changed
type Notifier interface {
	Wait(ctx context.Context) error
	Close() error
}

// None is the Notifier of a caller that chose not to wait indefinitely.
// Its Wait fails immediately with ErrGaveUp.
var None Notifier = none{}

type none struct{}

func (none) Wait(context.Context) error { return ErrGaveUp }
func (none) Close() error               { return nil }

// Phase names the states of the wait state machine
type Phase int

const (
	Spinning Phase = iota
	WaitingOnNotification
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Spinning:
		return "spinning"
	case WaitingOnNotification:
		return "waiting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// State is a position in the wait state machine
type State struct {
	Phase     Phase
	Remaining int
	Reason    error
}

// EventKind is what happened since the last transition
type EventKind int

const (
	Ready EventKind = iota
	NotReady
	Woken
	WakeFailed
)

// Event is the input to Next, Err is only set for WakeFailed
type Event struct {
	Kind EventKind
	Err  error
}

// Start is the initial state for the given spin budget. The budget counts
// every attempt made before blocking, including the first, and at least one
// attempt is always made.
func Start(budget int) State {
	if budget < 1 {
		budget = 1
	}
	return State{Phase: Spinning, Remaining: budget}
}

// Next is the transition function of the state machine. Done and Failed are
// terminal.
func Next(s State, ev Event, budget int) State {
	switch s.Phase {
	case Spinning:
		switch {
		case ev.Kind == Ready:
			return State{Phase: Done}
		case s.Remaining > 1:
			return State{Phase: Spinning, Remaining: s.Remaining - 1}
		default:
			return State{Phase: WaitingOnNotification}
		}
	case WaitingOnNotification:
		switch ev.Kind {
		case Woken:
			return Start(budget)
		case WakeFailed:
			return State{Phase: Failed, Reason: ev.Err}
		}
	}
	return s
}

// Strategy drives attempts through the state machine
type Strategy struct {
	Budget   int
	Notifier Notifier
	// OnWake is called after every notification wake-up
	OnWake func()
}

// Until calls attempt until it reports ready or returns an error. A nil
// Notifier behaves like None.
func (s *Strategy) Until(ctx context.Context, attempt func() (bool, error)) error {
	notifier := s.Notifier
	if notifier == nil {
		notifier = None
	}

	st := Start(s.Budget)
	for {
		switch st.Phase {
		case Spinning:
			ok, err := attempt()
			if err != nil {
				return err
			}
			kind := NotReady
			if ok {
				kind = Ready
			}
			st = Next(st, Event{Kind: kind}, s.Budget)
		case WaitingOnNotification:
			if err := notifier.Wait(ctx); err != nil {
				st = Next(st, Event{Kind: WakeFailed, Err: err}, s.Budget)
				continue
			}
			if s.OnWake != nil {
				s.OnWake()
			}
			st = Next(st, Event{Kind: Woken}, s.Budget)
		case Done:
			return nil
		default:
			return st.Reason
		}
	}
}
