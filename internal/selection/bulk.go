package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Status is the outcome of a bulk action.
type Status int

const (
	// Skipped means nothing was selected.
	Skipped Status = iota
	// Aborted means the confirmer declined.
	Aborted
	// Busy means the same action was already running for the instance.
	Busy
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Aborted:
		return "aborted"
	case Busy:
		return "busy"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Handler applies an action to a snapshot of selected ids. It either
// succeeds for all of them or returns an error.
type Handler func(ctx context.Context, ids []string) error

// Confirmer asks the user to approve message.
type Confirmer func(ctx context.Context, message string) (bool, error)

// Action is a bulk operation over the selection.
type Action struct {
	Name           string
	ConfirmMessage string
	Handler        Handler
	// InvalidateKeys are cache keys dropped after the action succeeds.
	InvalidateKeys []string
}

// Result reports how Execute settled.
type Result struct {
	RunID  string
	Action string
	Status Status
	IDs    []string
	Err    error
}

// OK reports whether the handler ran and succeeded.
func (r Result) OK() bool {
	return r.Status == Succeeded
}

// Execute runs action over the instance's current selection.
//
// The selection is cleared only when the handler succeeds; on failure,
// abort or a busy instance it is left untouched. The in-flight slot is held
// from before the confirmation prompt, so a busy action never prompts.
// confirm may be nil when the action has no ConfirmMessage.
func (m *Manager) Execute(ctx context.Context, instanceID string, action Action, confirm Confirmer) Result {
	res := Result{RunID: uuid.NewString(), Action: action.Name}
	log := m.logger.With("instance", instanceID, "action", action.Name, "run", res.RunID)

	res.IDs = m.Selected(instanceID)
	if len(res.IDs) == 0 {
		res.Status = Skipped
		res.Err = types.ErrNoSelection
		return res
	}

	key := flightKey{instance: instanceID, action: action.Name}
	if !m.begin(key, res.RunID) {
		res.Status = Busy
		res.Err = types.ErrActionInFlight
		return res
	}
	defer m.end(key)

	if action.ConfirmMessage != "" {
		if confirm == nil {
			res.Status = Aborted
			return res
		}
		ok, err := confirm(ctx, action.ConfirmMessage)
		if err != nil {
			res.Status = Aborted
			res.Err = fmt.Errorf("confirm %s: %w", action.Name, err)
			return res
		}
		if !ok {
			log.Info("bulk action declined")
			res.Status = Aborted
			return res
		}
	}

	log.Info("bulk action started", "ids", len(res.IDs))
	err := runHandler(ctx, action.Handler, res.IDs)
	if err != nil {
		log.Warn("bulk action failed", "error", err)
		res.Status = Failed
		res.Err = fmt.Errorf("bulk %s: %w", action.Name, err)
		return res
	}

	m.Clear(instanceID)
	log.Info("bulk action succeeded", "ids", len(res.IDs))
	res.Status = Succeeded
	return res
}

// ExecuteAsync runs Execute on a new goroutine. The channel receives exactly
// one Result and is then closed.
func (m *Manager) ExecuteAsync(ctx context.Context, instanceID string, action Action, confirm Confirmer) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- m.Execute(ctx, instanceID, action, confirm)
	}()
	return ch
}

// InFlight reports whether the named action is running for the instance.
func (m *Manager) InFlight(instanceID, action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inFlight[flightKey{instance: instanceID, action: action}]
	return ok
}

func (m *Manager) begin(key flightKey, runID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[key]; busy {
		return false
	}
	m.inFlight[key] = runID
	return true
}

func (m *Manager) end(key flightKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, key)
}

var errNoHandler = errors.New("no handler")

// runHandler calls h with a copy of ids. A panic in h reads as an error.
func runHandler(ctx context.Context, h Handler, ids []string) (err error) {
	if h == nil {
		return errNoHandler
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	snapshot := make([]string, len(ids))
	copy(snapshot, ids)
	return h(ctx, snapshot)
}
