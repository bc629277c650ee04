package jsonptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergePatchAddsAndOverwritesKeys(t *testing.T) {
	target := map[string]any{"a": 1.0, "b": 2.0}
	patch := map[string]any{"b": 3.0, "c": 4.0}

	got := MergePatch(target, patch)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 3.0, "c": 4.0}, got)
}

func TestMergePatchDeletesNullKeys(t *testing.T) {
	target := map[string]any{"a": 1.0, "b": 2.0}
	patch := map[string]any{"b": nil}

	got := MergePatch(target, patch)
	assert.Equal(t, map[string]any{"a": 1.0}, got)
}

func TestMergePatchRecursesIntoNestedObjects(t *testing.T) {
	target := map[string]any{"nested": map[string]any{"x": 1.0, "y": 2.0}}
	patch := map[string]any{"nested": map[string]any{"y": 9.0, "z": nil}}

	got := MergePatch(target, patch)
	assert.Equal(t, map[string]any{"nested": map[string]any{"x": 1.0, "y": 9.0}}, got)
}

func TestMergePatchReplacesNonObjectValues(t *testing.T) {
	target := map[string]any{"a": map[string]any{"x": 1.0}}
	patch := map[string]any{"a": "scalar"}

	got := MergePatch(target, patch)
	assert.Equal(t, map[string]any{"a": "scalar"}, got)
}

func TestMergePatchWholeDocumentReplacement(t *testing.T) {
	got := MergePatch(map[string]any{"a": 1.0}, "replacement")
	assert.Equal(t, "replacement", got)
}

func TestMergePatchDoesNotMutateTarget(t *testing.T) {
	target := map[string]any{"a": 1.0}
	patch := map[string]any{"a": 2.0}

	got := MergePatch(target, patch)
	assert.Equal(t, map[string]any{"a": 1.0}, target)
	assert.Equal(t, map[string]any{"a": 2.0}, got)
}

func TestMergeFieldsFlattensIntoTarget(t *testing.T) {
	target := map[string]any{"_index": 0.0}
	fields := map[string]any{"_topic": "t", "_command": "go"}

	got := MergeFields(target, fields)
	assert.Equal(t, map[string]any{"_index": 0.0, "_topic": "t", "_command": "go"}, got)
}
