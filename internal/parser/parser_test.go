package parser

import (
	"testing"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	for _, ch := range model.ScreenshotChannels {
		t.Run(string(ch), func(t *testing.T) {
			p, err := For(ch)
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}

	_, err := For(model.ChannelOFX)
	assert.ErrorIs(t, err, common.ErrUnsupportedInput)
	_, err = For(model.ChannelUndetermined)
	assert.ErrorIs(t, err, common.ErrUndetermined)
}

func TestParsePercent(t *testing.T) {
	v, err := parsePercent("-4.67%", -1)
	require.NoError(t, err)
	assert.Equal(t, -0.0467, v)

	v, err = parsePercent("12.34567%", 4)
	require.NoError(t, err)
	assert.Equal(t, 0.1235, v)

	_, err = parsePercent("--", 4)
	assert.Error(t, err)
}

func TestIsDigits(t *testing.T) {
	assert.True(t, isDigits("0123"))
	assert.False(t, isDigits(""))
	assert.False(t, isDigits("12a"))
	assert.False(t, isDigits("１２"))
}
