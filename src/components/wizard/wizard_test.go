package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teledesk/src/models"
)

func testSpecs() []models.Specialization {
	return []models.Specialization{
		{ID: "card", Name: "Cardiology"},
		{ID: "derm", Name: "Dermatology"},
	}
}

func testSlots() []models.TimeRange {
	return []models.TimeRange{
		{Start: "09:00", End: "09:30"},
		{Start: "09:30", End: "10:00"},
	}
}

func TestReferralWalkthrough(t *testing.T) {
	w := NewReferral(testSpecs(), []string{"2026-09-01", "2026-09-02"}, testSlots(), true)

	// Refer to: pick Dermatology.
	w.MoveDown()
	require.True(t, w.Next())

	// Session type: default video.
	require.Equal(t, "Session type", w.Current().Title)
	require.True(t, w.Next())

	// Preference: pick afternoon.
	w.MoveDown()
	require.True(t, w.Next())

	// Date: pick the second day.
	w.MoveDown()
	require.True(t, w.Next())

	// Slot, then confirm.
	require.True(t, w.Next())
	require.True(t, w.Next())

	require.True(t, w.Done())
	r := BuildReferral(w.Result(), "patient-7")
	require.Equal(t, models.Referral{
		PatientID:        "patient-7",
		SpecializationID: "derm",
		SessionType:      "video",
		Preference:       "afternoon",
		SlotDate:         "2026-09-02",
		SlotTime:         "09:00",
	}, r)
}

func TestFollowUpSkipsSpecialization(t *testing.T) {
	w := NewFollowUp([]string{"2026-09-01"}, testSlots(), true)
	require.Equal(t, "Session type", w.Current().Title)

	for w.Next() && !w.Done() {
	}
	require.True(t, w.Done())

	f := BuildFollowUp(w.Result(), "appt-3", "patient-7")
	require.Equal(t, "appt-3", f.AppointmentID)
	require.Equal(t, "patient-7", f.PatientID)
	require.Equal(t, "video", f.SessionType)
	require.Equal(t, "2026-09-01", f.SlotDate)
}

func TestBackKeepsSelection(t *testing.T) {
	w := NewReferral(testSpecs(), []string{"2026-09-01"}, testSlots(), true)

	w.MoveDown()
	require.True(t, w.Next())
	require.True(t, w.Back())
	require.Equal(t, 1, w.Current().Selected)
}

func TestBackAtFirstStepReportsFalse(t *testing.T) {
	w := NewFollowUp([]string{"2026-09-01"}, testSlots(), true)
	require.False(t, w.Back())
	require.False(t, w.Cancelled())

	w.Cancel()
	require.True(t, w.Cancelled())
	require.False(t, w.Done())
	require.Nil(t, w.Current())
}

func TestSelectionWraps(t *testing.T) {
	w := NewReferral(testSpecs(), []string{"2026-09-01"}, testSlots(), true)

	w.MoveUp()
	require.Equal(t, 1, w.Current().Selected)
	w.MoveDown()
	require.Equal(t, 0, w.Current().Selected)
}

func TestNextWithoutChoicesBlocks(t *testing.T) {
	// Empty slot list means the slot step cannot be confirmed.
	w := NewFollowUp([]string{"2026-09-01"}, nil, true)
	require.True(t, w.Next()) // session type
	require.True(t, w.Next()) // preference
	require.True(t, w.Next()) // date
	require.False(t, w.Next())
	require.False(t, w.Done())
}

func TestSlotChoicesMergeAndCut(t *testing.T) {
	ranges := []models.TimeRange{
		{Start: "09:30", End: "10:00"},
		{Start: "09:00", End: "09:45"},
	}
	slots := SlotChoices(ranges, 30*time.Minute)
	require.Equal(t, []models.TimeRange{
		{Start: "09:00", End: "09:30"},
		{Start: "09:30", End: "10:00"},
	}, slots)
}

func TestSlotLabelsIn12HourMode(t *testing.T) {
	w := NewFollowUp([]string{"2026-09-01"}, []models.TimeRange{{Start: "14:00", End: "14:30"}}, false)
	w.Next() // session type
	w.Next() // preference
	w.Next() // date
	require.Equal(t, "2:00 PM - 2:30 PM", w.Current().Choices[0].Label)
	require.Equal(t, "14:00", w.Current().Choices[0].ID)
}
