package daoportal

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemEventsKey(t *testing.T) {
	// Known constant shared by every Substrate chain.
	require.Equal(t,
		"0x26aa394eea5630e07c48ae0c9558cef780d41e5e16056765bc8461851072c9d7",
		SystemEventsKey())
}

func TestTwox128(t *testing.T) {
	require.Equal(t, "26aa394eea5630e07c48ae0c9558cef7", hex.EncodeToString(Twox128([]byte("System"))))
}

func TestDecodeHex(t *testing.T) {
	want := []byte{0xab, 0xcd}

	got, err := DecodeHex("0xabcd")
	require.NoError(t, err)
	require.Equal(t, want, got)

	got, err = DecodeHex("abcd")
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = DecodeHex("0xzz")
	require.Error(t, err)
}
