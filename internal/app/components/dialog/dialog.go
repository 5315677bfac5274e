package dialog

// State is the view-model for the shared confirmation/alert dialog. It only
// captures intent and outcome text; it knows nothing about the operation
// behind the confirm button.
type State struct {
	Open          bool
	Title         string
	Message       string
	ConfirmURL    string
	ConfirmMethod string
	ConfirmText   string
	CancelText    string
	// IsConfirm selects the two-button confirm/cancel layout; otherwise a
	// single acknowledgement button is rendered.
	IsConfirm bool
}

// Success builds a single-button acknowledgement dialog.
func Success(message string) State {
	return State{
		Open:    true,
		Title:   "Success",
		Message: message,
	}
}

// Error builds a single-button error dialog. The message is surfaced
// verbatim, including any server-provided detail.
func Error(message string) State {
	return State{
		Open:    true,
		Title:   "Error",
		Message: message,
	}
}

// Confirm builds a two-button dialog. The mutation at confirmURL fires only
// when the confirm button is pressed; cancel and backdrop dismissal never
// trigger it.
func Confirm(title, message, confirmURL, method string) State {
	return State{
		Open:          true,
		Title:         title,
		Message:       message,
		ConfirmURL:    confirmURL,
		ConfirmMethod: method,
		ConfirmText:   "Confirm",
		CancelText:    "Cancel",
		IsConfirm:     true,
	}
}
