package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedKinds(t *testing.T) {
	testCases := []struct {
		name    string
		typeID  uint32
		command bool
		reply   bool
	}{
		{"command", GroupCustom | 0x0001, true, false},
		{"reply", CommandOKTypeID, true, true},
		{"event", GroupCustom | TypeIDKindEvent | 0x0001, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typed := &Typed{TypeId: tc.typeID}
			require.Equal(t, tc.command, typed.IsCommand())
			require.Equal(t, !tc.command, typed.IsEvent())
			require.Equal(t, tc.reply, typed.IsReply())
		})
	}
}

func TestTypedEnvelope(t *testing.T) {
	typed, err := TypedFrom(NewCommandErrFromMsg("boom"))
	require.NoError(t, err)
	typed.Sequence = 42
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, CommandErrTypeID, decoded.TypeId)
	require.Equal(t, uint32(42), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.EqualError(t, msg.(*CommandErr), "boom")
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := (&Typed{TypeId: GroupCustom | 0x7ff0}).Decode()
	require.IsType(t, &ErrUnknownType{}, err)
}

func TestTypedFromPlainMessage(t *testing.T) {
	_, err := TypedFrom(nil)
	require.Equal(t, ErrNotSerializable, err)
}

func TestRegisterDuplicate(t *testing.T) {
	require.Panics(t, func() { Register(&CommandOK{}) })
}
