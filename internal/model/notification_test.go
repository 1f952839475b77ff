package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataMerge(t *testing.T) {
	base := Metadata{"phone_number": "+5491122334455", "retry_count": 1}
	patch := Metadata{"retry_count": 2, "error_reason": "api_error"}

	merged := base.Merge(patch)

	assert.Equal(t, "+5491122334455", merged.GetString("phone_number"), "untouched keys preserved")
	assert.Equal(t, 2, merged.GetInt("retry_count"), "patch keys overwrite")
	assert.Equal(t, "api_error", merged.GetString("error_reason"), "new keys added")

	assert.Equal(t, 1, base.GetInt("retry_count"), "merge does not mutate the receiver")
}

func TestMetadataMergeNilReceiver(t *testing.T) {
	var base Metadata
	merged := base.Merge(Metadata{"a": "b"})
	assert.Equal(t, "b", merged.GetString("a"))
}

func TestMetadataGetters(t *testing.T) {
	m := Metadata{
		"str":    "x",
		"num":    float64(3), // what json decoding produces
		"flag":   true,
		"nested": map[string]interface{}{"k": "v"},
		"null":   nil,
	}

	assert.Equal(t, "x", m.GetString("str"))
	assert.Equal(t, "", m.GetString("null"))
	assert.Equal(t, "", m.GetString("missing"))
	assert.Equal(t, 3, m.GetInt("num"))
	assert.Equal(t, 0, m.GetInt("missing"))
	assert.True(t, m.GetBool("flag"))
	assert.False(t, m.GetBool("str"))
	assert.Equal(t, map[string]interface{}{"k": "v"}, m.GetMap("nested"))
	assert.Nil(t, m.GetMap("str"))
}

func TestMetadataScanValueRoundTrip(t *testing.T) {
	m := Metadata{"phone_number": "+5491122334455", "use_template": true}

	v, err := m.Value()
	assert.NoError(t, err)

	var out Metadata
	assert.NoError(t, out.Scan(v))
	assert.Equal(t, "+5491122334455", out.GetString("phone_number"))
	assert.True(t, out.GetBool("use_template"))
}

func TestTemplateKeyFor(t *testing.T) {
	assert.Equal(t, "appointment_confirmation", TemplateKeyFor("appointment_confirmed"))
	assert.Equal(t, "appointment_reminder", TemplateKeyFor("appointment_reminder"))
	assert.Equal(t, "default", TemplateKeyFor("something_unmapped"))
}
