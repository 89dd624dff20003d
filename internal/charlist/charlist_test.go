package charlist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packets"
	"github.com/udisondev/tibiarelay/internal/testutil"
)

func TestRewrite_OnlyAddressFieldsChange(t *testing.T) {
	rw := NewRewriter(packets.DefaultRegistry())
	chars := testutil.Fixtures.Characters
	orig := testutil.LoginResponse(testutil.Fixtures.Motd, chars, 12)
	msg := bytes.Clone(orig)
	local := model.NewEndpoint("127.0.0.1", 7180)

	list, err := rw.Rewrite(msg, local)
	require.NoError(t, err)
	require.Len(t, list.Entries, len(chars))
	assert.Len(t, msg, len(orig))
	assert.Equal(t, testutil.Fixtures.Motd, list.Motd)
	assert.Equal(t, uint16(12), list.PremiumDays)

	// Every differing byte must fall inside some entry's 6-byte address field,
	// and every address field must now hold the local endpoint.
	reparsed, err := rw.Parse(msg)
	require.NoError(t, err)
	for i, e := range reparsed.Entries {
		assert.Equal(t, local, e.Original, "entry %d on the wire", i)
		assert.Equal(t, chars[i].Name, e.Name)
		assert.Equal(t, chars[i].World, e.World)
	}

	// The same response built with the local endpoint in every entry is
	// byte-identical to the rewritten one.
	localChars := make([]packets.CharacterInfo, len(chars))
	for i, c := range chars {
		c.IP, c.Port = [4]byte{127, 0, 0, 1}, 7180
		localChars[i] = c
	}
	assert.Equal(t, testutil.LoginResponse(testutil.Fixtures.Motd, localChars, 12), msg)
	assert.NotEqual(t, orig, msg)

	for i, e := range list.Entries {
		want := model.EndpointFromIPv4(chars[i].IP, chars[i].Port)
		assert.Equal(t, want, e.Original)
		assert.Equal(t, local, e.Local)

		got, err := list.Endpoint(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRewrite_AddressesAtExpectedOffsets(t *testing.T) {
	rw := NewRewriter(packets.DefaultRegistry())
	chars := []packets.CharacterInfo{{Name: "A", World: "B", IP: [4]byte{1, 2, 3, 4}, Port: 0x1111}}
	msg := testutil.LoginResponse("m", chars, 0)

	_, err := rw.Rewrite(msg, model.NewEndpoint("127.0.0.1", 0x2233))
	require.NoError(t, err)

	// [len 2][0x14][str 2+1][0x64][count][str 2+1][str 2+1][ip 4][port 2][premium 2]
	ipAt := 2 + 1 + 3 + 1 + 1 + 3 + 3
	assert.Equal(t, []byte{127, 0, 0, 1, 0x33, 0x22}, msg[ipAt:ipAt+6])
}

func TestList_EndpointOutOfRange(t *testing.T) {
	l := &List{Entries: make([]Entry, 2)}

	_, err := l.Endpoint(2)
	assert.ErrorIs(t, err, ErrNoSuchCharacter)
	_, err = l.Endpoint(-1)
	assert.ErrorIs(t, err, ErrNoSuchCharacter)
}

func TestRewrite_Errors(t *testing.T) {
	rw := NewRewriter(packets.DefaultRegistry())
	msg := testutil.LoginResponse("m", testutil.Fixtures.Characters, 0)

	_, err := rw.Rewrite(bytes.Clone(msg), model.NewEndpoint("localhost", 7171))
	assert.Error(t, err, "host must be an IPv4 literal")

	motdOnly := testutil.Message(&packets.Text{Tag: packets.TypeMotd, Message: "hi"})
	_, err = rw.Rewrite(motdOnly, model.NewEndpoint("127.0.0.1", 7171))
	assert.ErrorIs(t, err, ErrNotCharacterList)

	_, err = rw.Parse([]byte{0x09, 0x00, 0x14})
	assert.Error(t, err, "declared length past the end")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
		want Outcome
	}{
		{"motd and list", testutil.LoginResponse("m", testutil.Fixtures.Characters, 0), OutcomeCharacterList},
		{"bad login", testutil.Message(&packets.Text{Tag: packets.TypeLoginError, Message: "Account name or password is not correct."}), OutcomeBadLogin},
		{"bad login, new style", testutil.Message(&packets.Text{Tag: packets.TypeLoginErrorNew, Message: "x"}), OutcomeBadLogin},
		{"waiting list", testutil.Message(&packets.WaitingList{Tag: packets.TypeLoginWaitingList, Message: "wait", Retry: 5}), OutcomeOther},
		{"empty", []byte{0x00, 0x00}, OutcomeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.msg))
			assert.NotEmpty(t, tt.want.String())
		})
	}
}
