package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceRecord_ErrorRecordCarriesOnlyURLAndError(t *testing.T) {
	rec := ErrorRecord("https://x/place/A", errors.New("boom"))

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, map[string]string{"url": "https://x/place/A", "error": "boom"}, m)
}

func TestPlaceRecord_DetailRecordHasEveryKeyButError(t *testing.T) {
	rec := PlaceRecord{URL: "https://x/place/B", Name: "B"}

	m := rec.Map()
	assert.Len(t, m, 14)
	assert.NotContains(t, m, KeyError)
	assert.Equal(t, "", m[KeyPhone])
}

func TestPlaceRecord_UnmarshalRoundTrip(t *testing.T) {
	in := PlaceRecord{URL: "u", Name: "Café", Rating: "4.5", ReviewCount: "(12)"}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out PlaceRecord
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestPlaceRecord_UnmarshalRejectsUnknownKey(t *testing.T) {
	var rec PlaceRecord
	err := json.Unmarshal([]byte(`{"url":"u","bogus":"x"}`), &rec)
	assert.Error(t, err)
}

func TestHarvestError_Unwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewHarvestError(ErrCodeNavigation, "navigation failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NAVIGATION_FAILED: navigation failed: socket closed", err.Error())
	assert.Equal(t, &ErrorDetail{Code: ErrCodeNavigation, Message: "navigation failed"}, err.ToDetail())
}
