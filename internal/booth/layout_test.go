package booth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSelectable(t *testing.T) {
	layout := NewLayout([]Spot{
		{BoothID: 1, Category: CategoryFood},
		{BoothID: 2, Category: CategoryFood},
		{BoothID: 3, Category: CategoryCraft},
		{BoothID: 4, Category: CategoryFood},
		{BoothID: 5, Category: CategoryFood},
		{BoothID: 6, Category: CategoryFood},
	})
	statuses := map[int]Canonical{
		2: {BoothID: 2, Status: Held},
		4: {BoothID: 4, Status: Booked},
		5: {BoothID: 5, Status: Confirmed},
		6: {BoothID: 6, Status: Available},
	}

	tests := []struct {
		name   string
		id     int
		filter Category
		want   bool
	}{
		{"no record is available", 1, CategoryFood, true},
		{"held", 2, CategoryFood, false},
		{"other category", 3, CategoryFood, false},
		{"booked", 4, CategoryFood, false},
		{"confirmed", 5, CategoryFood, false},
		{"explicitly available", 6, CategoryFood, true},
		{"no filter", 1, CategoryNone, false},
		{"not on the map", 99, CategoryFood, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSelectable(statuses, layout, tt.id, tt.filter))
		})
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Jewelry ")
	assert.NoError(t, err)
	assert.Equal(t, CategoryJewelry, c)

	c, err = ParseCategory("")
	assert.NoError(t, err)
	assert.Equal(t, CategoryNone, c)

	_, err = ParseCategory("antiques")
	assert.Error(t, err)
}

func TestSnapshotLookupAndCounts(t *testing.T) {
	var empty *Snapshot
	assert.Equal(t, Available, empty.Lookup(3).Status)
	assert.Equal(t, 0, empty.Counts()[Held])

	s := &Snapshot{Statuses: map[int]Canonical{
		1: {BoothID: 1, Status: Held, Display: Booked},
		2: {BoothID: 2, Status: Confirmed, Display: Confirmed},
		3: {BoothID: 3, Status: Held, Display: Booked},
	}}
	assert.Equal(t, Booked, s.Lookup(1).Display)
	assert.Equal(t, Available, s.Lookup(42).Status)
	assert.Equal(t, 42, s.Lookup(42).BoothID)

	counts := s.Counts()
	assert.Equal(t, 2, counts[Held])
	assert.Equal(t, 1, counts[Confirmed])
	assert.Equal(t, 0, counts[Available])
}

func TestStatusText(t *testing.T) {
	b, err := Held.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "held", string(b))
	assert.Equal(t, "available", Status(17).String())
}
