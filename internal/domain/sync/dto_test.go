package sync

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload(strings.NewReader(`{
		"farms": [{"id": 9007199254740993, "name": "North", "size": 1.5, "plant_type": "Maize"}],
		"boundary_points": [],
		"unknown": 1
	}`))
	require.NoError(t, err)
	require.Len(t, p.Farms, 1)
	assert.Equal(t, 1, p.Len())
	assert.NotNil(t, p.BoundaryPoints)
	assert.Nil(t, p.ObservationPoints)

	id, err := p.Farms[0].MobileID()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), id)
}

func TestDecodePayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "broken json", body: `{"farms": [`},
		{name: "not an object", body: `[1, 2]`},
		{name: "array of non objects", body: `{"farms": [1, "x"]}`},
		{name: "entity not an array", body: `{"farms": {"id": 1}}`},
		{name: "trailing data", body: `{"farms": []} {"farms": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestFields_MobileID(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int64
		wantErr error
	}{
		{name: "json number", raw: json.Number("42"), want: 42},
		{name: "int", raw: 7, want: 7},
		{name: "integral float", raw: 3.0, want: 3},
		{name: "numeric string", raw: " 15 ", want: 15},
		{name: "fractional number", raw: json.Number("1.5"), wantErr: ErrInvalidRecord},
		{name: "fractional float", raw: 2.25, wantErr: ErrInvalidRecord},
		{name: "text", raw: "abc", wantErr: ErrInvalidRecord},
		{name: "bool", raw: true, wantErr: ErrInvalidRecord},
		{name: "null", raw: nil, wantErr: ErrMissingMobileID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Fields{"id": tt.raw}.MobileID()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	_, err := Fields{}.MobileID()
	assert.ErrorIs(t, err, ErrMissingMobileID)
}

func TestParseEntityType(t *testing.T) {
	e, err := ParseEntityType("observation_points")
	require.NoError(t, err)
	assert.Equal(t, EntityObservationPoints, e)

	_, err = ParseEntityType("tractors")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
