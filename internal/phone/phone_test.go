package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"local with trunk prefix", "01122334455", "+5491122334455"},
		{"local with mobile indicator", "91122334455", "+5491122334455"},
		{"already canonical", "+5491122334455", "+5491122334455"},
		{"country code no plus", "541122334455", "+5491122334455"},
		{"country code with indicator", "5491122334455", "+5491122334455"},
		{"formatted with separators", "011 2233-4455", "+5491122334455"},
		{"plus kept verbatim", "+541122334455", "+541122334455"},
		{"empty input still total", "", "+54"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"01122334455", "91122334455", "+5491122334455", "541122334455"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+5491122334455"))
	assert.False(t, IsValid("+541122334455"), "missing mobile indicator")
	assert.False(t, IsValid("12345"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("+549abc1122334"))
}
