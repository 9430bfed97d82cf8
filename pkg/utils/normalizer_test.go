package utils_test

import (
	"testing"

	"github.com/alumnet/modguard/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestTextNormalizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		want     string
		contains string
		hasMatch bool
	}{
		{
			name:     "empty string",
			input:    "",
			want:     "",
			contains: "test",
			hasMatch: false,
		},
		{
			name:     "basic string",
			input:    "Hello World",
			want:     "hello world",
			contains: "hello",
			hasMatch: true,
		},
		{
			name:     "string with diacritics",
			input:    "héllo wörld",
			want:     "hello world",
			contains: "world",
			hasMatch: true,
		},
		{
			name:     "mixed case with spaces",
			input:    "HéLLo   WöRLD",
			want:     "hello world",
			contains: "HELLO",
			hasMatch: true,
		},
		{
			name:     "no match in string",
			input:    "hello world",
			want:     "hello world",
			contains: "goodbye",
			hasMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			normalizer := utils.NewTextNormalizer()

			assert.Equal(t, tt.want, normalizer.Normalize(tt.input))
			assert.Equal(t, tt.hasMatch, normalizer.Contains(tt.input, tt.contains))
		})
	}
}
