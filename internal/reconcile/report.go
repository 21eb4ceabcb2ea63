package reconcile

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/models"
)

// Reporter writes one structured line per comparison and accumulates the run
// summary. Results are not retained beyond the log.
type Reporter struct {
	logger  arbor.ILogger
	summary models.RunSummary
}

// NewReporter creates a reporter for one run
func NewReporter(runID string, logger arbor.ILogger) *Reporter {
	return &Reporter{
		logger:  logger,
		summary: models.RunSummary{RunID: runID},
	}
}

// Record logs one comparison result and tallies it
func (r *Reporter) Record(result models.ComparisonResult) {
	r.summary.Record(result)

	event := r.logger.Info()
	if result.Outcome != models.OutcomeMatch {
		event = r.logger.Warn()
	}

	event = event.
		Str("context", result.Context).
		Str("field", result.Field).
		Str("outcome", result.Outcome.String())

	switch result.Outcome {
	case models.OutcomeMatch, models.OutcomeMismatch:
		event = event.
			Str("expected", result.Expected).
			Str("observed", result.Observed)
	default:
		if result.Err != nil {
			event = event.Err(result.Err)
		}
	}
	event.Msg("Field comparison")
}

// ContextDone marks one context fully processed
func (r *Reporter) ContextDone(context string) {
	r.summary.Contexts++
	r.logger.Info().Str("context", context).Msg("Context completed")
}

// ContextAbandoned marks one context abandoned before completion
func (r *Reporter) ContextAbandoned(context string, err error) {
	r.summary.Abandoned++
	r.logger.Warn().Str("context", context).Err(err).Msg("Context abandoned")
}

// Summary returns the accumulated counts
func (r *Reporter) Summary() models.RunSummary {
	return r.summary
}

// Finish logs the terminal summary
func (r *Reporter) Finish() models.RunSummary {
	s := r.summary
	r.logger.Info().
		Str("run_id", s.RunID).
		Int("contexts", s.Contexts).
		Int("abandoned", s.Abandoned).
		Int("match", s.Match).
		Int("mismatch", s.Mismatch).
		Int("not_found", s.NotFound).
		Int("decode_errors", s.DecodeErrors).
		Bool("clean", s.Clean()).
		Msg("Reconciliation run complete")
	return s
}
