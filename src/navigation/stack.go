// stack.go - Navigation stack for screen flow: dashboard at the root,
// wizards and detail screens pushed on top.

package navigation

import (
	"teledesk/src/types"
)

// Stack is a simple view stack. The root view is never popped.
type Stack struct {
	views []types.ViewState
}

// NewStack creates a stack with root as its permanent bottom view.
func NewStack(root types.ViewState) *Stack {
	return &Stack{views: []types.ViewState{root}}
}

// Push makes view the current top.
func (s *Stack) Push(view types.ViewState) {
	s.views = append(s.views, view)
}

// Pop removes the top view. The root stays.
func (s *Stack) Pop() {
	if len(s.views) > 1 {
		s.views = s.views[:len(s.views)-1]
	}
}

// Top returns the current view.
func (s *Stack) Top() types.ViewState {
	return s.views[len(s.views)-1]
}

// ReplaceTop swaps the current view in place, as Update implementations
// return a possibly-new state.
func (s *Stack) ReplaceTop(view types.ViewState) {
	s.views[len(s.views)-1] = view
}

// Depth returns the number of views on the stack.
func (s *Stack) Depth() int {
	return len(s.views)
}

// AtRoot reports whether only the root view remains.
func (s *Stack) AtRoot() bool {
	return len(s.views) == 1
}
