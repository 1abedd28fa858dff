package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/testutil"
)

func TestBinarizeImageNil(t *testing.T) {
	mask, w, h := BinarizeImage(nil)
	assert.Nil(t, mask)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestBinarizeImageWhitePage(t *testing.T) {
	mask, w, h := BinarizeImage(testutil.WhitePage(64, 48))
	require.Len(t, mask, 64*48)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	for _, ink := range mask {
		if ink {
			t.Fatal("white page produced ink")
		}
	}
}

func TestBinarizeImageDetectsInk(t *testing.T) {
	img := testutil.WhitePage(64, 64)
	testutil.FillRect(img, 20, 20, 8, 8)

	mask, w, _ := BinarizeImage(img)
	require.NotNil(t, mask)

	ink := 0
	for _, v := range mask {
		if v {
			ink++
		}
	}
	assert.Equal(t, 64, ink)
	assert.True(t, mask[24*w+24])
	assert.False(t, mask[2*w+2])
}

func TestBinarizeAdaptiveSizeMismatch(t *testing.T) {
	assert.Nil(t, BinarizeAdaptive(make([]uint8, 10), 5, 5))
	assert.Nil(t, BinarizeAdaptive(nil, 0, 0))
}
