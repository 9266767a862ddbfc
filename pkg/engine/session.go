package engine

import (
	"errors"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Invalid transition signals. These are rejected synchronously; the session
// never silently ignores a guarded call.
var (
	ErrReviewComplete = errors.New("review session is complete")
	ErrNothingToUndo  = errors.New("nothing to undo")
)

// Decision is one entry of the completion summary. Applied is true only if
// accepting the suggestion actually changed the document; an accepted
// suggestion whose path never resolved counts as skipped, same as a reject.
type Decision struct {
	Suggestion Suggestion
	Applied    bool
}

// ReviewSession walks an ordered list of suggestions one at a time, keeping
// an append-only stack of document snapshots so accept, reject and undo are
// pure push/pop operations. One session serves one review workflow; callers
// must not share a session across concurrent reviewers.
//
// Invariant: len(snapshots) == cursor + 1 after every operation.
type ReviewSession struct {
	ID string

	suggestions []Suggestion
	cursor      int
	snapshots   []string
	patcher     *PatchEngine
	logger      hclog.Logger
}

// NewReviewSession seeds the snapshot stack with the original document.
func NewReviewSession(document string, suggestions []Suggestion, patcher *PatchEngine, logger hclog.Logger) *ReviewSession {
	if patcher == nil {
		patcher = &PatchEngine{Logger: logger}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ReviewSession{
		ID:          uuid.NewString(),
		suggestions: suggestions,
		snapshots:   []string{document},
		patcher:     patcher,
		logger:      logger,
	}
}

// Complete reports whether every suggestion has been decided.
func (r *ReviewSession) Complete() bool {
	return r.cursor >= len(r.suggestions)
}

// Current returns the suggestion under review.
func (r *ReviewSession) Current() (Suggestion, error) {
	if r.Complete() {
		return Suggestion{}, ErrReviewComplete
	}
	return r.suggestions[r.cursor], nil
}

// Document returns the latest snapshot.
func (r *ReviewSession) Document() string {
	return r.snapshots[len(r.snapshots)-1]
}

// Cursor returns the index of the suggestion under review.
func (r *ReviewSession) Cursor() int { return r.cursor }

// Len returns the total number of suggestions in the session.
func (r *ReviewSession) Len() int { return len(r.suggestions) }

// Accept applies the current suggestion against the latest snapshot and
// pushes the result. A suggestion that fails to apply still advances the
// review: the pushed snapshot is simply identical to its predecessor.
func (r *ReviewSession) Accept() error {
	current, err := r.Current()
	if err != nil {
		return err
	}
	next, outcomes := r.patcher.Apply(r.Document(), []Suggestion{current})
	for _, o := range outcomes {
		if o.Err != nil {
			r.logger.Warn("accepted suggestion did not apply", "id", o.Suggestion.ID, "error", o.Err)
		}
	}
	r.snapshots = append(r.snapshots, next)
	r.cursor++
	return nil
}

// Reject pushes an unchanged snapshot and advances the review.
func (r *ReviewSession) Reject() error {
	if _, err := r.Current(); err != nil {
		return err
	}
	r.snapshots = append(r.snapshots, r.Document())
	r.cursor++
	return nil
}

// Undo pops the latest snapshot and steps back to the previous suggestion.
// This restores the exact pre-decision document, never a re-derivation.
func (r *ReviewSession) Undo() error {
	if r.cursor == 0 {
		return ErrNothingToUndo
	}
	r.snapshots = r.snapshots[:len(r.snapshots)-1]
	r.cursor--
	return nil
}

// Summary reports, for every decided suggestion, whether it changed the
// document. Comparing adjacent snapshots covers both explicit rejects and
// accepts that degraded to no-ops.
func (r *ReviewSession) Summary() []Decision {
	decisions := make([]Decision, 0, r.cursor)
	for i := 0; i < r.cursor; i++ {
		decisions = append(decisions, Decision{
			Suggestion: r.suggestions[i],
			Applied:    r.snapshots[i] != r.snapshots[i+1],
		})
	}
	return decisions
}
