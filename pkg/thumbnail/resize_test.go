package thumbnail

import (
	"bytes"
	"image/gif"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestGenerator_Resize(t *testing.T) {
	g := NewGenerator(0)

	t.Run("PNGKeepsAspectRatio", func(t *testing.T) {
		out, err := g.Resize(pngBytes(t, 800, 400), 250)
		require.NoError(t, err)

		cfg, format := decodeConfig(t, out)
		assert.Equal(t, "png", format)
		assert.Equal(t, 250, cfg.Width)
		assert.Equal(t, 125, cfg.Height)
	})

	t.Run("JPEGStaysJPEG", func(t *testing.T) {
		out, err := g.Resize(jpegBytes(t, 600, 300), 100)
		require.NoError(t, err)

		cfg, format := decodeConfig(t, out)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 100, cfg.Width)
		assert.Equal(t, 50, cfg.Height)
	})

	t.Run("NeverUpscales", func(t *testing.T) {
		out, err := g.Resize(pngBytes(t, 80, 60), 500)
		require.NoError(t, err)

		cfg, _ := decodeConfig(t, out)
		assert.Equal(t, 80, cfg.Width)
		assert.Equal(t, 60, cfg.Height)
	})

	t.Run("FlatImageKeepsAtLeastOnePixel", func(t *testing.T) {
		out, err := g.Resize(pngBytes(t, 1000, 1), 100)
		require.NoError(t, err)

		cfg, _ := decodeConfig(t, out)
		assert.Equal(t, 100, cfg.Width)
		assert.Equal(t, 1, cfg.Height)
	})

	t.Run("GIFEncodedAsPNG", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, gif.Encode(&buf, testImage(300, 300), nil))

		out, err := g.Resize(buf.Bytes(), 100)
		require.NoError(t, err)
		_, format := decodeConfig(t, out)
		assert.Equal(t, "png", format)
	})

	t.Run("BMPEncodedAsPNG", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, bmp.Encode(&buf, testImage(300, 150)))

		out, err := g.Resize(buf.Bytes(), 100)
		require.NoError(t, err)
		cfg, format := decodeConfig(t, out)
		assert.Equal(t, "png", format)
		assert.Equal(t, 50, cfg.Height)
	})

	t.Run("RejectsNonImage", func(t *testing.T) {
		_, err := g.Resize([]byte("hello, world"), 100)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("RejectsCorruptImage", func(t *testing.T) {
		data := pngBytes(t, 100, 100)
		_, err := g.Resize(data[:len(data)/2], 50)
		assert.Error(t, err)
	})

	t.Run("RejectsInvalidWidth", func(t *testing.T) {
		_, err := g.Resize(pngBytes(t, 10, 10), 0)
		assert.Error(t, err)
	})
}

func TestNewGenerator_Quality(t *testing.T) {
	assert.Equal(t, DefaultJPEGQuality, NewGenerator(0).quality)
	assert.Equal(t, DefaultJPEGQuality, NewGenerator(101).quality)
	assert.Equal(t, 60, NewGenerator(60).quality)
}

func TestParseWidth(t *testing.T) {
	for _, w := range []int{500, 250, 100} {
		got, ok := ParseWidth(strconv.Itoa(w))
		assert.True(t, ok, "width %d", w)
		assert.Equal(t, w, got)
	}
	for _, s := range []string{"", "0", "99", "999", "-250", "+250", "0250", "250 ", "abc"} {
		_, ok := ParseWidth(s)
		assert.False(t, ok, "size %q", s)
	}
}

func TestDecodeJob(t *testing.T) {
	job, err := DecodeJob([]byte(`{"fileId":"f1","ownerId":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, Job{FileID: "f1", OwnerID: "u1"}, job)

	for _, payload := range []string{`not json`, `{}`, `{"fileId":"f1"}`, `{"ownerId":"u1"}`} {
		_, err := DecodeJob([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidJob, "payload %s", payload)
	}
}
