package leb128

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUint32(t *testing.T) {
	for _, c := range []struct {
		input    uint32
		expected []byte
	}{
		{input: 0, expected: []byte{0x00}},
		{input: 1, expected: []byte{0x01}},
		{input: 4, expected: []byte{0x04}},
		{input: 16256, expected: []byte{0x80, 0x7f}},
		{input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
		{input: 165675008, expected: []byte{0x80, 0x80, 0x80, 0x4f}},
		{input: 0xffffffff, expected: []byte{0xff, 0xff, 0xff, 0xff, 0xf}},
	} {
		require.Equal(t, c.expected, EncodeUint32(c.input))
	}
}

func TestDecodeUint32(t *testing.T) {
	for _, c := range []struct {
		bytes  []byte
		exp    uint32
		expErr bool
	}{
		{bytes: []byte{0xff, 0xff, 0xff, 0xff, 0xf}, exp: 0xffffffff},
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0x01}, exp: 1},
		{bytes: []byte{0x80, 0x7f}, exp: 16256},
		{bytes: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{bytes: []byte{0x80, 0x80, 0x80, 0x4f}, exp: 165675008},
		{bytes: []byte{0x83, 0x80, 0x80, 0x80, 0x80, 0x00}, expErr: true},
		{bytes: []byte{0x82, 0x80, 0x80, 0x80, 0x70}, expErr: true},
		{bytes: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, expErr: true},
	} {
		actual, num, err := DecodeUint32(bytes.NewReader(c.bytes))
		if c.expErr {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
			assert.Equal(t, c.exp, actual)
			assert.Equal(t, uint64(len(c.bytes)), num)
		}
	}
}

func TestDecodeUint64(t *testing.T) {
	for _, c := range []struct {
		bytes  []byte
		exp    uint64
		expErr bool
	}{
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0x80, 0x7f}, exp: 16256},
		{bytes: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{bytes: []byte{0x80, 0x80, 0x80, 0x4f}, exp: 165675008},
		{bytes: []byte{0x89, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x71}, expErr: true},
	} {
		actual, num, err := DecodeUint64(bytes.NewReader(c.bytes))
		if c.expErr {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
			assert.Equal(t, c.exp, actual)
			assert.Equal(t, uint64(len(c.bytes)), num)
		}
	}
}

func TestDecodeInt32(t *testing.T) {
	for i, c := range []struct {
		bytes  []byte
		exp    int32
		expErr bool
	}{
		{bytes: []byte{0x13}, exp: 19},
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0xFF, 0x00}, exp: 127},
		{bytes: []byte{0x81, 0x01}, exp: 129},
		{bytes: []byte{0x7f}, exp: -1},
		{bytes: []byte{0x81, 0x7f}, exp: -127},
		{bytes: []byte{0xFF, 0x7e}, exp: -129},
		{bytes: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, expErr: true},
		{bytes: []byte{0xff, 0xff, 0xff, 0xff, 0x4f}, expErr: true},
		{bytes: []byte{0x80, 0x80, 0x80, 0x80, 0x70}, expErr: true},
	} {
		actual, num, err := DecodeInt32(bytes.NewReader(c.bytes))
		if c.expErr {
			assert.Error(t, err, fmt.Sprintf("%d-th got value %d", i, actual))
		} else {
			assert.NoError(t, err, i)
			assert.Equal(t, c.exp, actual, i)
			assert.Equal(t, uint64(len(c.bytes)), num, i)
		}
	}
}

func TestDecodeInt64(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   int64
	}{
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0xFF, 0x00}, exp: 127},
		{bytes: []byte{0x81, 0x01}, exp: 129},
		{bytes: []byte{0x7f}, exp: -1},
		{bytes: []byte{0x81, 0x7f}, exp: -127},
		{bytes: []byte{0xFF, 0x7e}, exp: -129},
		{bytes: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f},
			exp: -9223372036854775808},
	} {
		actual, num, err := DecodeInt64(bytes.NewReader(c.bytes))
		require.NoError(t, err)
		assert.Equal(t, c.exp, actual)
		assert.Equal(t, uint64(len(c.bytes)), num)
	}
}

func TestDecodeInt64Overflow(t *testing.T) {
	_, _, err := DecodeInt64(bytes.NewReader([]byte{
		0x89, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x71,
	}))
	require.Error(t, err)
}

func TestDecodeVaru7(t *testing.T) {
	for _, c := range []struct {
		bytes  []byte
		exp    uint8
		expErr bool
	}{
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x7f}, exp: 0x7f},
		{bytes: []byte{0x80, 0x01}, expErr: true}, // continuation not allowed.
	} {
		actual, _, err := DecodeVaru7(bytes.NewReader(c.bytes))
		if c.expErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.exp, actual)
	}
}

func TestDecodeVaru1(t *testing.T) {
	_, _, err := DecodeVaru1(bytes.NewReader([]byte{0x02}))
	require.Error(t, err)
	var invalid *ErrInvalidVaru1
	require.ErrorAs(t, err, &invalid)

	v, _, err := DecodeVaru1(bytes.NewReader([]byte{0x01}))
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v)
}

func TestDecodeVari7(t *testing.T) {
	v, _, err := DecodeVari7(bytes.NewReader([]byte{0x7f}))
	require.NoError(t, err)
	assert.Equal(t, int8(-1), v)

	v, _, err = DecodeVari7(bytes.NewReader([]byte{0x7c}))
	require.NoError(t, err)
	assert.Equal(t, int8(-4), v)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 127, -127, 128, -128, 1 << 20, -(1 << 20)} {
		decoded, n, err := DecodeInt32(bytes.NewReader(EncodeInt32(v)))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
		assert.Equal(t, uint64(len(EncodeInt32(v))), n)
	}
	for _, v := range []int64{0, 1, -1, math32Min, -math32Min, -9223372036854775808} {
		decoded, _, err := DecodeInt64(bytes.NewReader(EncodeInt64(v)))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
	for _, v := range []uint32{0, 1, 16256, 624485, 0xffffffff} {
		decoded, _, err := DecodeUint32(bytes.NewReader(EncodeUint32(v)))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

const math32Min = 1 << 40
