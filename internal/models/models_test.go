package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorRecordDecoding(t *testing.T) {
	payload := `[
		{"id":"v1","boothNumber":14,"status":"approved","submittedAt":"2026-05-01T10:00:00Z"},
		{"id":"v2","boothNumber":"15","status":"held","bookingTimeline":{"heldUntil":"2026-05-01T10:15:00Z"}},
		{"id":"v3","boothNumber":null,"status":"paid"},
		{"id":"v4","status":"paid"},
		{"id":"v5","boothNumber":"B-7","status":"paid"}
	]`

	var vendors []VendorRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &vendors))
	records := BoothRecords(vendors)
	require.Len(t, records, 5)

	assert.Equal(t, 14.0, records[0].BoothID)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), records[0].SubmittedAt)
	assert.Equal(t, 15.0, records[1].BoothID)
	assert.Equal(t, "2026-05-01T10:15:00Z", records[1].HeldUntil)
	assert.True(t, math.IsNaN(records[2].BoothID))
	assert.True(t, math.IsNaN(records[3].BoothID))
	assert.True(t, math.IsNaN(records[4].BoothID))
	assert.Equal(t, "v5", records[4].RecordID)
}

func TestFlexibleNumberMarshal(t *testing.T) {
	b, err := json.Marshal(FlexibleNumber(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = json.Marshal(FlexibleNumber(12))
	require.NoError(t, err)
	assert.Equal(t, "12", string(b))
}

func TestVendorRecordLenientFields(t *testing.T) {
	var v VendorRecord
	require.NoError(t, json.Unmarshal([]byte(
		`{"id":7,"boothNumber":3,"status":["held"],"submittedAt":"yesterday","bookingTimeline":{"heldUntil":null}}`), &v))

	rec := v.BoothRecord()
	assert.Equal(t, "7", rec.RecordID)
	assert.Equal(t, "", rec.RawStatus)
	assert.Equal(t, "", rec.HeldUntil)
	assert.True(t, rec.SubmittedAt.IsZero())
	assert.Equal(t, 3.0, rec.BoothID)
}
