// wizard.go - Generic multi-step selection machine behind the referral and
// follow-up booking flows. The machine is plain state so it can be tested
// without any UI; view.go renders it.

package wizard

// Choice is one selectable option within a step.
type Choice struct {
	ID    string
	Label string
}

// Step is one screen of the flow. Selection is an index into Choices.
type Step struct {
	Key      string // result key this step fills
	Title    string
	Choices  []Choice
	Selected int
}

// Wizard walks a fixed sequence of steps. Next advances, Back returns to
// the previous step keeping its selection, Cancel abandons the flow.
type Wizard struct {
	title     string
	steps     []Step
	index     int
	done      bool
	cancelled bool
}

// New builds a wizard over the given steps. Flows with no steps are done
// immediately.
func New(title string, steps []Step) *Wizard {
	return &Wizard{title: title, steps: steps, done: len(steps) == 0}
}

// Title returns the flow's display name.
func (w *Wizard) Title() string { return w.title }

// Current returns the active step, or nil when the flow is finished.
func (w *Wizard) Current() *Step {
	if w.done || w.cancelled || w.index >= len(w.steps) {
		return nil
	}
	return &w.steps[w.index]
}

// Progress returns the 1-based step number and the total.
func (w *Wizard) Progress() (int, int) {
	return w.index + 1, len(w.steps)
}

// MoveUp moves the selection up within the current step, wrapping.
func (w *Wizard) MoveUp() {
	if s := w.Current(); s != nil && len(s.Choices) > 0 {
		s.Selected = (s.Selected - 1 + len(s.Choices)) % len(s.Choices)
	}
}

// MoveDown moves the selection down within the current step, wrapping.
func (w *Wizard) MoveDown() {
	if s := w.Current(); s != nil && len(s.Choices) > 0 {
		s.Selected = (s.Selected + 1) % len(s.Choices)
	}
}

// Next confirms the current selection and advances. Advancing past the
// last step completes the flow. Returns false when there is no valid
// selection to confirm.
func (w *Wizard) Next() bool {
	s := w.Current()
	if s == nil || len(s.Choices) == 0 {
		return false
	}
	w.index++
	if w.index >= len(w.steps) {
		w.done = true
	}
	return true
}

// Back returns to the previous step. At the first step it reports false so
// the caller can decide to cancel instead.
func (w *Wizard) Back() bool {
	if w.done || w.cancelled || w.index == 0 {
		return false
	}
	w.index--
	return true
}

// Cancel abandons the flow.
func (w *Wizard) Cancel() {
	w.cancelled = true
}

// Done reports whether every step was confirmed.
func (w *Wizard) Done() bool { return w.done && !w.cancelled }

// Cancelled reports whether the flow was abandoned.
func (w *Wizard) Cancelled() bool { return w.cancelled }

// Result maps each step key to the chosen option's ID. Only meaningful
// once Done.
func (w *Wizard) Result() map[string]string {
	out := make(map[string]string, len(w.steps))
	for _, s := range w.steps {
		if len(s.Choices) > 0 {
			out[s.Key] = s.Choices[s.Selected].ID
		}
	}
	return out
}
