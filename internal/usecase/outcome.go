package usecase

import "log/slog"

// OutcomeKind classifies the result of a single handler step.
type OutcomeKind int

const (
	OutcomeApplied OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is returned by every auxiliary step instead of a swallowed error.
// The caller decides whether a failed outcome propagates.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
}

// Applied reports a step that changed state.
func Applied(reason string) Outcome {
	return Outcome{Kind: OutcomeApplied, Reason: reason}
}

// Skipped reports a step that intentionally did nothing.
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Failed reports a step that could not complete.
func Failed(reason string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason, Err: err}
}

// LogAttrs renders the outcome as structured log attributes.
func (o Outcome) LogAttrs() []any {
	attrs := []any{
		slog.String("outcome", o.Kind.String()),
		slog.String("reason", o.Reason),
	}
	if o.Err != nil {
		attrs = append(attrs, slog.String("error", o.Err.Error()))
	}
	return attrs
}

// Level maps the outcome to the log level it deserves.
func (o Outcome) Level() slog.Level {
	switch o.Kind {
	case OutcomeFailed:
		return slog.LevelError
	case OutcomeSkipped:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
