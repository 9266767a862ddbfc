package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, suggestions []Suggestion) *ReviewSession {
	t.Helper()
	return NewReviewSession(podManifest, suggestions, nil, nil)
}

// checkInvariant asserts the snapshot stack stays in lockstep with the cursor.
func checkInvariant(t *testing.T, s *ReviewSession) {
	t.Helper()
	require.Equal(t, s.cursor+1, len(s.snapshots))
}

func TestSessionAcceptThenUndoRestoresExactBytes(t *testing.T) {
	session := newTestSession(t, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
	})
	assert.NotEmpty(t, session.ID)
	checkInvariant(t, session)

	require.NoError(t, session.Accept())
	checkInvariant(t, session)
	assert.NotEqual(t, podManifest, session.Document())
	assert.True(t, session.Complete())

	// Undo restores the stored snapshot, byte for byte.
	require.NoError(t, session.Undo())
	checkInvariant(t, session)
	assert.Equal(t, podManifest, session.Document())
	assert.False(t, session.Complete())
}

func TestSessionRejectLeavesDocumentUnchanged(t *testing.T) {
	session := newTestSession(t, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
	})

	require.NoError(t, session.Reject())
	checkInvariant(t, session)
	assert.Equal(t, podManifest, session.Document())

	summary := session.Summary()
	require.Len(t, summary, 1)
	assert.False(t, summary[0].Applied)
}

func TestSessionTransitionGuards(t *testing.T) {
	session := newTestSession(t, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
	})

	// Nothing decided yet: undo must be rejected, not ignored.
	assert.ErrorIs(t, session.Undo(), ErrNothingToUndo)

	require.NoError(t, session.Accept())
	require.True(t, session.Complete())

	// All suggestions decided: every forward transition is rejected.
	assert.ErrorIs(t, session.Accept(), ErrReviewComplete)
	assert.ErrorIs(t, session.Reject(), ErrReviewComplete)
	_, err := session.Current()
	assert.ErrorIs(t, err, ErrReviewComplete)

	// Undo still works after completion.
	require.NoError(t, session.Undo())
	assert.False(t, session.Complete())
}

func TestSessionSummaryDistinguishesAppliedFromSkipped(t *testing.T) {
	session := newTestSession(t, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
		{ID: "s2", Type: OpModify, Path: "does.not.exist", ProposedValue: "x"},
		{ID: "s3", Type: OpDelete, Path: "spec.hostNetwork"},
	})

	// Accepting a suggestion whose path never resolves advances the review
	// with an unchanged snapshot.
	require.NoError(t, session.Accept())
	require.NoError(t, session.Accept())
	require.NoError(t, session.Accept())
	checkInvariant(t, session)
	require.True(t, session.Complete())

	summary := session.Summary()
	require.Len(t, summary, 3)
	assert.True(t, summary[0].Applied)
	assert.False(t, summary[1].Applied)
	assert.True(t, summary[2].Applied)
}

func TestSessionInterleavedDecisions(t *testing.T) {
	session := newTestSession(t, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
		{ID: "s2", Type: OpModify, Path: "metadata.namespace", ProposedValue: "prod"},
	})

	require.NoError(t, session.Accept())
	afterFirst := session.Document()
	require.NoError(t, session.Reject())
	checkInvariant(t, session)

	// Rejecting never changes the document.
	assert.Equal(t, afterFirst, session.Document())

	// Undo the reject, then re-decide it as an accept.
	require.NoError(t, session.Undo())
	require.NoError(t, session.Accept())
	checkInvariant(t, session)
	assert.Equal(t, "prod", readPath(t, session.Document(), "metadata", "namespace"))
	assert.Equal(t, false, readPath(t, session.Document(), "spec", "hostNetwork"))

	summary := session.Summary()
	require.Len(t, summary, 2)
	assert.True(t, summary[0].Applied)
	assert.True(t, summary[1].Applied)
}
