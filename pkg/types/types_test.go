package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveSet(t *testing.T) {
	set := NewActiveSet("u2", "u1", "", "u2")

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("u1"))
	assert.True(t, set.Has("u2"))
	assert.False(t, set.Has("u3"))
	assert.False(t, set.Has(""), "empty uid is never active")
	assert.Equal(t, []string{"u1", "u2"}, set.Sorted())
}

func TestWorkloadSpecString(t *testing.T) {
	tests := []struct {
		name     string
		spec     WorkloadSpec
		expected string
		hasUID   bool
	}{
		{
			name:     "with uid",
			spec:     WorkloadSpec{Name: "bge-m3", Type: "embedding", UID: "emb"},
			expected: "bge-m3/emb",
			hasUID:   true,
		},
		{
			name:     "without uid",
			spec:     WorkloadSpec{Name: "bge-m3", Type: "embedding"},
			expected: "bge-m3",
			hasUID:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.String())
			assert.Equal(t, tt.hasUID, tt.spec.HasUID())
		})
	}
}
