package stylegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDataURLRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mimeType := rapid.SampledFrom([]string{"image/png", "image/jpeg", "image/webp"}).Draw(rt, "mime")
		data := rapid.SliceOf(rapid.Byte()).Draw(rt, "data")

		encoded := EncodeDataURL(mimeType, data)
		require.True(rt, IsDataURL(encoded))

		gotMIME, gotData, err := DecodeDataURL(encoded)
		require.NoError(rt, err)
		assert.Equal(rt, mimeType, gotMIME)
		assert.Equal(rt, len(data), len(gotData))
		assert.Equal(rt, string(data), string(gotData))
	})
}

func TestEncodeDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", EncodeDataURL("image/png", []byte("hello")))
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	for _, s := range []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,!!!",
	} {
		_, _, err := DecodeDataURL(s)
		assert.ErrorIs(t, err, ErrInvalidDataURL, s)
	}
}
