package page

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestBlockedTypes(t *testing.T) {
	got := blockedTypes([]string{"Image", "Font", "Script", "Bogus"})

	assert.Len(t, got, 2)
	assert.Contains(t, got, proto.NetworkResourceTypeImage)
	assert.Contains(t, got, proto.NetworkResourceTypeFont)
	assert.NotContains(t, got, proto.NetworkResourceTypeScript)
}

func TestBlockedTypes_Empty(t *testing.T) {
	assert.Empty(t, blockedTypes(nil))
}
