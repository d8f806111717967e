package voter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateLanding, StateDisclaimer, true},
		{StateDisclaimer, StateAborted, true},
		{StateAddressInfo, StateNotFound, true},
		{StateFound, StateConfirmation, true},
		{StateLanding, StatePersonalInfo, false},
		{StateFound, StateNotFound, false},
		{StateDone, StateLanding, false},
		{StateAborted, StateLanding, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	for s := StateLanding; s <= StateAborted; s++ {
		terminal := s == StateDone || s == StateAborted
		assert.Equal(t, terminal, s.Terminal(), s.String())
		if !terminal {
			assert.NotEmpty(t, transitions[s], "%s has no way out", s)
		}
	}
	assert.Equal(t, "unknown", State(99).String())
}

func TestParseRegistration(t *testing.T) {
	reg, err := ParseRegistration(confirmationSection, "https://vreg.registertovoteon.ca/en/home")
	require.NoError(t, err)
	assert.Equal(t, "Toronto", reg.Municipality)
	assert.Equal(t, "Spadina-Fort York", reg.ElectoralDistrict)
	assert.Equal(t, "https://vreg.registertovoteon.ca/en/district/101", reg.DistrictLink)
}

func TestParseRegistration_BoldDistrict(t *testing.T) {
	markup := `<ul><li><label>Electoral district</label><b>Ottawa Centre</b></li></ul>`
	reg, err := ParseRegistration(markup, "")
	require.NoError(t, err)
	assert.Equal(t, "Ottawa Centre", reg.ElectoralDistrict)
	assert.Empty(t, reg.DistrictLink)
	assert.Empty(t, reg.Municipality)
	assert.Contains(t, reg.String(), "- Link: n/a")
}
