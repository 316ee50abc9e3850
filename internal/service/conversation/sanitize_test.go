package conversation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/bothive/internal/service/conversation"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"   ":                    "",
		"  hi   there ":          "hi there",
		"line one\n\nline two":   "line one line two",
		"tabs\tand nbsp":         "tabs and nbsp",
		"already clean":          "already clean",
		"\t lead and trail \r\n": "lead and trail",
	}
	for in, want := range cases {
		assert.Equal(t, want, conversation.Sanitize(in), "input %q", in)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"", " a ", "a  b\tc\n\nd", " em space ", "ünïcödé   text", "x"}
	for _, in := range inputs {
		once := conversation.Sanitize(in)
		assert.Equal(t, once, conversation.Sanitize(once), "input %q", in)
	}
}
