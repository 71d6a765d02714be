package mac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openthread-go/threadcore/internal/threaderr"
)

func TestWhitelist33rdAddFailsAndLeavesExistingUntouched(t *testing.T) {
	var w Whitelist
	w.SetEnabled(true)

	for i := 0; i < maxWhitelistEntries; i++ {
		var ext ExtAddress
		ext[0] = byte(i)
		assert.Equal(t, threaderr.None, w.Add(ext))
	}

	var overflow ExtAddress
	overflow[0] = 0xFF
	assert.Equal(t, threaderr.NoBufs, w.Add(overflow))

	var first ExtAddress
	first[0] = 0
	assert.True(t, w.Allows(first))
	assert.False(t, w.Allows(overflow))
}

func TestWhitelistDisabledAllowsEverything(t *testing.T) {
	var w Whitelist
	var ext ExtAddress
	ext[0] = 0x99
	assert.True(t, w.Allows(ext))
}

func TestWhitelistRSSIOverride(t *testing.T) {
	var w Whitelist
	var ext ExtAddress
	ext[0] = 1
	w.Add(ext)
	w.SetRSSIOverride(ext, -40)
	assert.EqualValues(t, -40, w.NormalizeRSSI(ext, -90))
}
