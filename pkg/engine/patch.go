package engine

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Outcome reports what happened to one suggestion during a patch batch.
type Outcome struct {
	Suggestion Suggestion
	Applied    bool
	Err        error
}

// PatchEngine applies remediation suggestions to a YAML document as precise,
// path-addressed mutations. It works on the yaml.v3 node tree so comments
// and scalar styles survive on everything the patch does not touch.
type PatchEngine struct {
	Logger hclog.Logger
}

// Apply applies each suggestion independently against the first sub-document
// of the stream; later sub-documents pass through unchanged. A suggestion
// whose path does not resolve, or whose operation is unknown, degrades to a
// no-op for that suggestion and never aborts its siblings. Apply never fails
// as a whole: on an unparseable document it returns the original text.
func (e *PatchEngine) Apply(document string, suggestions []Suggestion) (string, []Outcome) {
	logger := e.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	if len(suggestions) == 0 {
		return document, nil
	}

	head, rest := splitStream(document)

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(head), &root); err != nil || len(root.Content) == 0 {
		logger.Error("target document failed to parse, leaving it untouched", "error", err)
		outcomes := make([]Outcome, 0, len(suggestions))
		for _, s := range suggestions {
			outcomes = append(outcomes, Outcome{Suggestion: s, Err: fmt.Errorf("document parse failed: %v", err)})
		}
		return document, outcomes
	}
	target := root.Content[0]

	outcomes := make([]Outcome, 0, len(suggestions))
	applied := 0
	for _, s := range suggestions {
		err := e.applyOne(target, s)
		if err != nil {
			logger.Warn("suggestion skipped", "id", s.ID, "path", s.Path, "error", err)
		} else {
			logger.Debug("suggestion applied", "id", s.ID, "type", s.Type, "path", s.Path)
			applied++
		}
		outcomes = append(outcomes, Outcome{Suggestion: s, Applied: err == nil, Err: err})
	}

	// If every suggestion degraded to a no-op, keep the original bytes
	// instead of re-serializing an identical tree.
	if applied == 0 {
		return document, outcomes
	}

	var buf bytes.Buffer
	if hasLeadingMarker(head) {
		buf.WriteString("---\n")
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		logger.Error("failed to serialize patched document, returning original", "error", err)
		return document, outcomes
	}
	enc.Close()

	return buf.String() + rest, outcomes
}

// applyOne walks the dot-separated path one segment at a time and mutates
// only at the terminal segment, after the full path has resolved.
func (e *PatchEngine) applyOne(root *yaml.Node, s Suggestion) error {
	if s.Path == "" {
		return fmt.Errorf("empty path")
	}
	segments := strings.Split(s.Path, ".")
	node := root
	for i, seg := range segments {
		last := i == len(segments)-1
		switch node.Kind {
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return fmt.Errorf("path %q: segment %q is not a sequence index", s.Path, seg)
			}
			if idx < 0 || idx >= len(node.Content) {
				return fmt.Errorf("path %q: index %d out of range", s.Path, idx)
			}
			if last {
				return applySequenceOp(node, idx, s)
			}
			node = node.Content[idx]
		case yaml.MappingNode:
			if last {
				return applyMappingOp(node, seg, s)
			}
			next := mappingValue(node, seg)
			if next == nil {
				return fmt.Errorf("path %q: key %q not found", s.Path, seg)
			}
			node = next
		default:
			return fmt.Errorf("path %q: cannot descend into scalar at %q", s.Path, seg)
		}
	}
	return nil
}

func applyMappingOp(m *yaml.Node, key string, s Suggestion) error {
	switch s.Type {
	case OpModify:
		setMappingKey(m, key, fragmentNode(s.ProposedValue))
	case OpAdd:
		frag := fragmentNode(s.ProposedValue)
		if frag.Kind == yaml.MappingNode {
			// A mapping fragment merges into the terminal container,
			// overwriting keys that already exist.
			mergeMapping(m, frag)
		} else {
			setMappingKey(m, key, frag)
		}
	case OpDelete:
		if !deleteMappingKey(m, key) {
			return fmt.Errorf("key %q not found", key)
		}
	default:
		return fmt.Errorf("unsupported suggestion type %q", s.Type)
	}
	return nil
}

func applySequenceOp(seq *yaml.Node, idx int, s Suggestion) error {
	switch s.Type {
	case OpModify, OpAdd:
		seq.Content[idx] = fragmentNode(s.ProposedValue)
	case OpDelete:
		seq.Content = append(seq.Content[:idx], seq.Content[idx+1:]...)
	default:
		return fmt.Errorf("unsupported suggestion type %q", s.Type)
	}
	return nil
}

// fragmentNode parses a proposed value as a YAML fragment when it is one,
// and falls back to a literal scalar otherwise. Multi-line scalars keep
// block style so they are not folded on output.
func fragmentNode(value string) *yaml.Node {
	multiline := strings.Contains(value, "\n")
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err != nil || len(doc.Content) == 0 {
		return literalScalar(value, multiline)
	}
	frag := doc.Content[0]
	if frag.Kind == yaml.ScalarNode && multiline {
		return literalScalar(value, true)
	}
	return frag
}

func literalScalar(value string, multiline bool) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	if multiline {
		n.Style = yaml.LiteralStyle
	}
	return n
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMappingKey(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	m.Content = append(m.Content, keyNode, value)
}

func mergeMapping(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		setMappingKey(dst, src.Content[i].Value, src.Content[i+1])
	}
}

func deleteMappingKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

// isDocumentMarker reports whether a trimmed line starts a YAML sub-document.
// Trailing content after the marker ("--- # prod overlay") still counts.
func isDocumentMarker(trimmed string) bool {
	if trimmed == "---" {
		return true
	}
	return strings.HasPrefix(trimmed, "--- ") || strings.HasPrefix(trimmed, "---\t")
}

// splitStream separates the first sub-document of a YAML stream from the
// rest. A leading document marker (with only blanks or comments before it)
// still belongs to the first sub-document.
func splitStream(document string) (head, rest string) {
	lines := strings.SplitAfter(document, "\n")
	opened := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isDocumentMarker(trimmed) {
			if opened {
				return strings.Join(lines[:i], ""), strings.Join(lines[i:], "")
			}
			opened = true
			continue
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			opened = true
		}
	}
	return document, ""
}

func hasLeadingMarker(head string) bool {
	for _, line := range strings.Split(head, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return isDocumentMarker(trimmed)
	}
	return false
}
