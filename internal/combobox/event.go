package combobox

import "github.com/tamasystem/callpad/internal/domain"

// Event is one input the combobox reacts to.
type Event interface {
	isEvent()
}

// TextChanged reports a new input value.
type TextChanged struct {
	Value string
}

// FocusGained reports the field receiving focus.
type FocusGained struct{}

// ArrowDown reports a down-arrow key press.
type ArrowDown struct{}

// ArrowUp reports an up-arrow key press.
type ArrowUp struct{}

// Enter reports an enter key press.
type Enter struct{}

// Escape reports an escape key press.
type Escape struct{}

// OptionClicked reports a pointer click on the option at Index in Filtered.
type OptionClicked struct {
	Index int
}

// OutsideInteraction reports focus or a click landing outside the field and its dropdown.
type OutsideInteraction struct{}

// ListReloaded carries a replacement candidate list.
type ListReloaded struct {
	List domain.CandidateList
}

// AvailabilityChanged carries the loader's loading flag and last error.
type AvailabilityChanged struct {
	Loading bool
	Err     error
}

func (TextChanged) isEvent()         {}
func (FocusGained) isEvent()         {}
func (ArrowDown) isEvent()           {}
func (ArrowUp) isEvent()             {}
func (Enter) isEvent()               {}
func (Escape) isEvent()              {}
func (OptionClicked) isEvent()       {}
func (OutsideInteraction) isEvent()  {}
func (ListReloaded) isEvent()        {}
func (AvailabilityChanged) isEvent() {}
