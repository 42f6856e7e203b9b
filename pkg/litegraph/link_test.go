package litegraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLink_Serialize tests the positional encoding.
func TestLink_Serialize(t *testing.T) {
	l := NewLink(3, "number", 1, 0, 2, 1)
	assert.Equal(t, []any{3, 1, 0, 2, 1, SlotType("number")}, l.Serialize())

	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[3,1,0,2,1,"number"]`, string(b))
}

// TestLink_Serialize_EventType tests that event links encode their type as -1.
func TestLink_Serialize_EventType(t *testing.T) {
	b, err := json.Marshal(NewLink(1, Event, 1, 0, 2, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,1,0,2,0,-1]`, string(b))
}

// TestLink_Configure_Forms tests both accepted encodings.
func TestLink_Configure_Forms(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{"positional", `[7,1,2,3,4,"string"]`},
		{"object", `{"id":7,"origin_id":1,"origin_slot":2,"target_id":3,"target_slot":4,"type":"string"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var l Link
			require.NoError(t, json.Unmarshal([]byte(tc.json), &l))
			assert.Equal(t, Link{ID: 7, Type: "string", OriginID: 1, OriginSlot: 2, TargetID: 3, TargetSlot: 4}, l)
		})
	}
}

// TestLink_Configure_Invalid tests malformed link encodings.
func TestLink_Configure_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		json string
	}{
		{"short tuple", `[1,2,3]`},
		{"fractional id", `[1.5,1,0,2,0]`},
		{"string field", `{"id":"x"}`},
		{"scalar", `12`},
		{"bad numeric type", `[1,1,0,2,0,5]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var l Link
			assert.Error(t, json.Unmarshal([]byte(tc.json), &l))
		})
	}
}

// TestSlotType_JSON tests the numeric encoding of sentinel types.
func TestSlotType_JSON(t *testing.T) {
	testCases := []struct {
		typ  SlotType
		json string
	}{
		{Event, `-1`},
		{"", `0`},
		{"number", `"number"`},
	}

	for _, tc := range testCases {
		t.Run(tc.json, func(t *testing.T) {
			b, err := json.Marshal(tc.typ)
			require.NoError(t, err)
			assert.JSONEq(t, tc.json, string(b))

			var back SlotType
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, tc.typ, back)
		})
	}

	var null SlotType = "x"
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.Equal(t, SlotType(""), null)
}

// TestIsValidConnection tests type compatibility rules.
func TestIsValidConnection(t *testing.T) {
	testCases := []struct {
		name string
		a, b SlotType
		want bool
	}{
		{"same", "number", "number", true},
		{"case insensitive", "Number", "number", true},
		{"different", "number", "string", false},
		{"wildcard output", "", "number", true},
		{"wildcard input", "number", "*", true},
		{"event to action", Event, Action, true},
		{"event to data", Event, "number", false},
		{"list match", "number,string", "string", true},
		{"list both sides", "a,b", "c,B", true},
		{"list no match", "a,b", "c,d", false},
		{"list spaces significant", "number, string", "string", false},
		{"list spaces on both sides", "number, string", "a, string", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidConnection(tc.a, tc.b))
		})
	}
}

// TestSlotType_Alternatives tests splitting of multi-type declarations.
func TestSlotType_Alternatives(t *testing.T) {
	assert.Equal(t, []SlotType{"number", "string"}, SlotType("Number|string").Alternatives())
	assert.Equal(t, []SlotType{"a", ""}, SlotType("a,*").Alternatives())
	assert.Equal(t, []SlotType{Event}, Event.Alternatives())
	assert.Equal(t, []SlotType{""}, Wildcard.Alternatives())
}

// TestMode_String tests mode names and validation.
func TestMode_String(t *testing.T) {
	assert.Equal(t, "On Trigger", OnTrigger.String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
	assert.False(t, Mode(-1).Valid())
	assert.True(t, OnRequest.Valid())
}
