package rasterizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabled(t *testing.T) {
	png, err := Disabled{}.Rasterize(context.Background(), Request{Document: "<p>x</p>"})
	assert.Nil(t, png)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIsPNG(t *testing.T) {
	assert.True(t, IsPNG([]byte("\x89PNG\r\n\x1a\nrest")))
	assert.False(t, IsPNG([]byte("\x89PNG")))
	assert.False(t, IsPNG([]byte("<html>not an image</html>")))
	assert.False(t, IsPNG(nil))
}

func TestWidthOrDefault(t *testing.T) {
	assert.Equal(t, DefaultWidth, Request{}.WidthOrDefault())
	assert.Equal(t, DefaultWidth, Request{Width: -5}.WidthOrDefault())
	assert.Equal(t, 320, Request{Width: 320}.WidthOrDefault())
}
