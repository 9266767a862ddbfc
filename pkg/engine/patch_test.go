package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const podManifest = `apiVersion: v1
kind: Pod
metadata:
  name: app
spec:
  hostNetwork: true
  containers:
    - name: app
      image: nginx
      securityContext:
        privileged: true
`

// readPath re-parses a document and walks it with string keys and int
// indices, so assertions check semantics instead of serialization detail.
func readPath(t *testing.T, document string, path ...interface{}) interface{} {
	t.Helper()
	var root interface{}
	require.NoError(t, yaml.Unmarshal([]byte(document), &root))

	current := root
	for _, seg := range path {
		switch s := seg.(type) {
		case string:
			m, ok := current.(map[string]interface{})
			require.True(t, ok, "expected mapping at segment %v", seg)
			current = m[s]
		case int:
			l, ok := current.([]interface{})
			require.True(t, ok, "expected sequence at segment %v", seg)
			require.Less(t, s, len(l))
			current = l[s]
		default:
			t.Fatalf("unsupported path segment %v", seg)
		}
	}
	return current
}

func TestApplyNoSuggestionsIsByteIdentity(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, nil)
	assert.Equal(t, podManifest, patched)
	assert.Empty(t, outcomes)
}

func TestApplyModifyNestedScalar(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.containers.0.securityContext.privileged", ProposedValue: "false"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, false, readPath(t, patched, "spec", "containers", 0, "securityContext", "privileged"))
	// Untouched siblings survive.
	assert.Equal(t, "nginx", readPath(t, patched, "spec", "containers", 0, "image"))
}

func TestApplyModifyCreatesMissingTerminalKey(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "metadata.namespace", ProposedValue: "prod"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.Equal(t, "prod", readPath(t, patched, "metadata", "namespace"))
	assert.Equal(t, "app", readPath(t, patched, "metadata", "name"))
}

func TestApplyAddMergesMappingFragment(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{
			ID:            "s1",
			Type:          OpAdd,
			Path:          "spec.containers.0.securityContext",
			ProposedValue: "securityContext:\n  runAsNonRoot: true\n  privileged: false",
		},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	// The fragment merges into the container mapping: the new key appears
	// and the existing one is overwritten.
	assert.Equal(t, true, readPath(t, patched, "spec", "containers", 0, "securityContext", "runAsNonRoot"))
	assert.Equal(t, false, readPath(t, patched, "spec", "containers", 0, "securityContext", "privileged"))
	assert.Equal(t, "app", readPath(t, patched, "spec", "containers", 0, "name"))
}

func TestApplyDeleteKey(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{ID: "s1", Type: OpDelete, Path: "spec.hostNetwork"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	spec, ok := readPath(t, patched, "spec").(map[string]interface{})
	require.True(t, ok)
	_, exists := spec["hostNetwork"]
	assert.False(t, exists)
}

func TestApplyDeleteSequenceElement(t *testing.T) {
	doc := "spec:\n  args:\n    - --insecure\n    - --port=8080\n"
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(doc, []Suggestion{
		{ID: "s1", Type: OpDelete, Path: "spec.args.0"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	args, ok := readPath(t, patched, "spec", "args").([]interface{})
	require.True(t, ok)
	require.Len(t, args, 1)
	assert.Equal(t, "--port=8080", args[0])
}

func TestApplyUnresolvablePathLeavesDocumentUntouched(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "x.y", ProposedValue: "false"},
	})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Applied)
	assert.Error(t, outcomes[0].Err)
	// Nothing applied: the original bytes come back, not a re-serialization.
	assert.Equal(t, podManifest, patched)
}

func TestApplyMixedBatchSkipsOnlyTheBadSuggestion(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
		{ID: "s2", Type: OpModify, Path: "spec.containers.9.image", ProposedValue: "nginx:stable"},
		{ID: "s3", Type: OpDelete, Path: "spec.nosuchkey"},
	})

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Applied)
	assert.False(t, outcomes[1].Applied)
	assert.Error(t, outcomes[1].Err)
	assert.False(t, outcomes[2].Applied)
	assert.Error(t, outcomes[2].Err)
	assert.Equal(t, false, readPath(t, patched, "spec", "hostNetwork"))
}

func TestApplyUnsupportedType(t *testing.T) {
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(podManifest, []Suggestion{
		{ID: "s1", Type: "replace", Path: "spec.hostNetwork", ProposedValue: "false"},
	})

	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Applied)
	assert.Error(t, outcomes[0].Err)
	assert.Equal(t, podManifest, patched)
}

func TestApplyMultiDocumentStream(t *testing.T) {
	doc := `---
kind: Pod
spec:
  hostNetwork: true
---
kind: Service
metadata:
  name: svc
`
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(doc, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	// Only the first sub-document is patched; later ones pass through as-is.
	assert.True(t, strings.HasPrefix(patched, "---\n"))
	assert.True(t, strings.HasSuffix(patched, "---\nkind: Service\nmetadata:\n  name: svc\n"))
	assert.Equal(t, false, readPath(t, strings.SplitN(patched, "---\nkind: Service", 2)[0], "spec", "hostNetwork"))
}

func TestApplyMultiDocumentStreamWithCommentedMarkers(t *testing.T) {
	doc := `--- # base
kind: Pod
spec:
  hostNetwork: true
--- # prod overlay
kind: Service
metadata:
  name: svc
`
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(doc, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "spec.hostNetwork", ProposedValue: "false"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	// A marker with a trailing comment still separates sub-documents.
	assert.True(t, strings.HasPrefix(patched, "---\n"))
	assert.True(t, strings.HasSuffix(patched, "--- # prod overlay\nkind: Service\nmetadata:\n  name: svc\n"))
	assert.Equal(t, false, readPath(t, strings.SplitN(patched, "--- # prod overlay", 2)[0], "spec", "hostNetwork"))
}

func TestApplyMultilineProposedValueKeepsBlockStyle(t *testing.T) {
	doc := "data:\n  entrypoint: old\n"
	engine := &PatchEngine{}
	patched, outcomes := engine.Apply(doc, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "data.entrypoint", ProposedValue: "set -e\nexec /app/server"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.Contains(t, patched, "|")
	assert.Equal(t, "set -e\nexec /app/server", readPath(t, patched, "data", "entrypoint"))
}

func TestApplyUnparseableDocument(t *testing.T) {
	engine := &PatchEngine{}
	broken := "key: [unclosed\n"
	patched, outcomes := engine.Apply(broken, []Suggestion{
		{ID: "s1", Type: OpModify, Path: "key", ProposedValue: "x"},
	})

	assert.Equal(t, broken, patched)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Applied)
	assert.Error(t, outcomes[0].Err)
}
