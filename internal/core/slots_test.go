package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingSlots(t *testing.T) {
	t.Run("starts tomorrow and caps at ten", func(t *testing.T) {
		wednesday := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
		slots := MeetingSlots(wednesday, 5)

		require.Len(t, slots, maxSlots)
		assert.Equal(t, "Thursday, March 13 at 09:00 AM", slots[0])
		assert.Equal(t, "Thursday, March 13 at 04:00 PM", slots[3])
		assert.Equal(t, "Friday, March 14 at 09:00 AM", slots[4])
		assert.Equal(t, "Monday, March 17 at 11:00 AM", slots[9])
	})

	t.Run("skips the weekend", func(t *testing.T) {
		friday := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
		slots := MeetingSlots(friday, 1)

		assert.Equal(t, []string{
			"Monday, March 17 at 09:00 AM",
			"Monday, March 17 at 11:00 AM",
			"Monday, March 17 at 02:00 PM",
			"Monday, March 17 at 04:00 PM",
		}, slots)
	})

	t.Run("no days", func(t *testing.T) {
		assert.Empty(t, MeetingSlots(time.Now(), 0))
	})
}

func TestSchedulingOfferShowsEightSlots(t *testing.T) {
	slots := MeetingSlots(time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC), 5)
	draft := Profile{Organization: "S&P Smiles Co.", Signatory: "Team"}.SchedulingOffer("Jane", "Greenwood", "Partnership", slots)

	assert.Contains(t, draft.Body, "• "+slots[7])
	assert.NotContains(t, draft.Body, slots[8])
	assert.Equal(t, "Re: Partnership - Available Meeting Times", draft.Subject)
}
