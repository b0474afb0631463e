package prompt

import "context"

// Answer is the outcome of a yes/no question.
type Answer int

const (
	// Dismissed means the question was closed without an answer. Callers treat
	// it like No.
	Dismissed Answer = iota
	Yes
	No
)

func (a Answer) String() string {
	switch a {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "dismissed"
	}
}

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Host asks the user things and shows them messages.
type Host interface {
	Confirm(ctx context.Context, message string) (Answer, error)
	// InputText returns ok=false when the user cancelled.
	InputText(ctx context.Context, prompt, placeholder string) (text string, ok bool, err error)
	Notify(ctx context.Context, level Level, message string)
}
