package nvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeometry(t *testing.T) {
	g := Geometry{128, 64}
	require.Equal(t, 192, g.Total())
	require.Equal(t, 0, g.Base(0))
	require.Equal(t, 128, g.Base(1))
	require.Equal(t, 0, g.Size(2))

	testCases := []struct {
		name   string
		region Region
		offset int
		n      int
		ok     bool
	}{
		{"whole region", 0, 0, 128, true},
		{"tail byte", 1, 63, 1, true},
		{"past end", 1, 63, 2, false},
		{"negative offset", 0, -1, 1, false},
		{"unknown region", 2, 0, 1, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Check(tc.region, tc.offset, tc.n)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				_, isRange := err.(*RangeError)
				require.True(t, isRange)
			}
		})
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(Geometry{16, 16})
	data, err := m.Read(1, 0, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, data)

	require.NoError(t, m.Write(1, 2, []byte{1, 2}))
	data, err = m.Read(1, 0, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xff, 1, 2}, data)

	data[0] = 0
	again, err := m.Read(1, 0, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff}, again, "Read must return a copy")

	require.NoError(t, m.Flip(1, 2, 0x80))
	data, err = m.Read(1, 2, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0x81}, data)

	require.NoError(t, m.erase(1))
	data, err = m.Read(1, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xff}, data)

	require.Error(t, m.Write(0, 15, []byte{1, 2}))

	failure := errors.New("cell worn out")
	m.FailWrites = failure
	require.Equal(t, failure, m.Write(0, 0, []byte{1}))
}
