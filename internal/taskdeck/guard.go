package taskdeck

// View names a top-level screen.
type View string

const (
	ViewLogin View = "login"
	ViewTasks View = "tasks"
)

// Guard returns the view the user should be on for the given session state.
// The bool is false when current is already correct or the session is still
// loading. Guard is pure; evaluating it again on its own result never
// redirects.
func Guard(state State, current View) (View, bool) {
	if state.Loading {
		return current, false
	}
	switch {
	case !state.SignedIn() && current != ViewLogin:
		return ViewLogin, true
	case state.SignedIn() && current == ViewLogin:
		return ViewTasks, true
	default:
		return current, false
	}
}
