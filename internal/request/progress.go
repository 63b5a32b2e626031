package request

import (
	"fmt"
	"time"
)

// DefaultReportInterval is how often the orchestrator samples the
// in-flight request for a progress update.
const DefaultReportInterval = 100 * time.Millisecond

// Update is one progress sample, ready for the status line.
type Update struct {
	ID      ID
	Phase   Phase
	Elapsed time.Duration
	Message string
}

// Report samples an in-flight request at the given instant. Pure
// function of its inputs: it keeps no state and the same record and
// clock always produce the same update.
func Report(f *InFlight, now time.Time) Update {
	elapsed := f.Elapsed(now)
	return Update{
		ID:      f.ID,
		Phase:   f.Phase,
		Elapsed: elapsed,
		Message: progressMessage(f.Phase, elapsed),
	}
}

// progressMessage phrases a phase for humans. Elapsed time appears
// once it reaches a full second so the line stays steady early on.
func progressMessage(p Phase, elapsed time.Duration) string {
	var verb string
	switch p {
	case PhaseLLMRequesting:
		verb = "contacting model"
	case PhaseLLMThinking:
		verb = "model is thinking"
	case PhaseLLMStreaming:
		verb = "receiving answer"
	case PhaseDBExecuting:
		verb = "running statement"
	case PhaseProcessing:
		verb = "processing results"
	default:
		verb = "working"
	}
	if elapsed < time.Second {
		return verb + "…"
	}
	return fmt.Sprintf("%s… %s", verb, elapsed.Round(time.Second))
}
