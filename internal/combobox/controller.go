package combobox

import "github.com/tamasystem/callpad/internal/domain"

// SelectFunc receives each selected entry.
type SelectFunc func(domain.CandidateEntry)

// Controller owns one State and applies events to it in order.
// It is not safe for concurrent use; callers serialize events on one goroutine.
type Controller struct {
	state     State
	listeners []SelectFunc
}

// NewController constructs a controller in the mount state.
func NewController(list domain.CandidateList) *Controller {
	return &Controller{state: NewState(list)}
}

// State returns the current state value.
func (c *Controller) State() State {
	return c.state
}

// OnSelect registers fn to run after every selection.
func (c *Controller) OnSelect(fn SelectFunc) {
	if fn == nil {
		return
	}
	c.listeners = append(c.listeners, fn)
}

// Dispatch applies ev and notifies select listeners when an option was chosen.
func (c *Controller) Dispatch(ev Event) Outcome {
	if ev == nil {
		return Outcome{}
	}
	next, out := Reduce(c.state, ev)
	c.state = next
	if out.HasSelection {
		for _, fn := range c.listeners {
			fn(out.Selected)
		}
	}
	return out
}
