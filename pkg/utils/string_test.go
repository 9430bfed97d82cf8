package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/alumnet/modguard/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestCompressAllWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single space", input: "hello world", want: "hello world"},
		{name: "multiple spaces", input: "hello    world", want: "hello world"},
		{name: "newlines and spaces", input: "hello\n\n  world  \n\n", want: "hello world"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \n\t   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CompressAllWhitespace(tt.input))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		limit   int
		wantLen int
		cut     bool
	}{
		{name: "empty", input: "", limit: 200, wantLen: 0},
		{name: "below limit", input: strings.Repeat("a", 199), limit: 200, wantLen: 199},
		{name: "at limit", input: strings.Repeat("a", 200), limit: 200, wantLen: 200},
		{name: "one over limit", input: strings.Repeat("a", 201), limit: 200, wantLen: 203, cut: true},
		{name: "far over limit", input: strings.Repeat("b", 1000), limit: 200, wantLen: 203, cut: true},
		{name: "multibyte runes", input: strings.Repeat("é", 250), limit: 200, wantLen: 203, cut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := utils.TruncateRunes(tt.input, tt.limit)
			assert.Equal(t, tt.wantLen, utf8.RuneCountInString(got))
			assert.Equal(t, tt.cut, strings.HasSuffix(got, utils.EllipsisMarker))
		})
	}
}
