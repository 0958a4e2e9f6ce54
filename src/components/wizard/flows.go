// flows.go - Concrete wizard flows: referral and follow-up booking. Each flow
// is a step list builder plus a converter from the confirmed result to the
// record the API expects.

package wizard

import (
	"time"

	"teledesk/src/models"
	"teledesk/src/services/schedule"
)

// Result keys shared by both flows.
const (
	keySpecialization = "specialization"
	keySessionType    = "session_type"
	keyPreference     = "preference"
	keySlotDate       = "slot_date"
	keySlotTime       = "slot_time"
	keyConfirm        = "confirm"
)

func sessionTypeStep() Step {
	return Step{
		Key:   keySessionType,
		Title: "Session type",
		Choices: []Choice{
			{ID: "video", Label: "Video call"},
			{ID: "audio", Label: "Audio call"},
			{ID: "in_person", Label: "In person"},
		},
	}
}

func preferenceStep() Step {
	return Step{
		Key:   keyPreference,
		Title: "Preferred time of day",
		Choices: []Choice{
			{ID: "morning", Label: "Morning"},
			{ID: "afternoon", Label: "Afternoon"},
			{ID: "evening", Label: "Evening"},
		},
	}
}

func dateStep(dates []string) Step {
	choices := make([]Choice, len(dates))
	for i, d := range dates {
		choices[i] = Choice{ID: d, Label: d}
	}
	return Step{Key: keySlotDate, Title: "Date", Choices: choices}
}

func slotStep(slots []models.TimeRange, clock24 bool) Step {
	choices := make([]Choice, 0, len(slots))
	for _, s := range slots {
		label := s.Start + " - " + s.End
		if !clock24 {
			start, errS := schedule.To12Hour(s.Start)
			end, errE := schedule.To12Hour(s.End)
			if errS == nil && errE == nil {
				label = start + " - " + end
			}
		}
		choices = append(choices, Choice{ID: s.Start, Label: label})
	}
	return Step{Key: keySlotTime, Title: "Time slot", Choices: choices}
}

func confirmStep(label string) Step {
	return Step{
		Key:   keyConfirm,
		Title: "Confirm",
		Choices: []Choice{
			{ID: "yes", Label: label},
		},
	}
}

// SlotChoices cuts the doctor's availability ranges into bookable slots.
func SlotChoices(ranges []models.TimeRange, slotLen time.Duration) []models.TimeRange {
	var out []models.TimeRange
	for _, r := range schedule.MergeRanges(ranges) {
		slots, err := schedule.SlotsBetween(r, slotLen)
		if err != nil {
			continue
		}
		out = append(out, slots...)
	}
	return out
}

// NewReferral builds the referral flow: specialization, session type, time
// preference, date, slot, confirm.
func NewReferral(specs []models.Specialization, dates []string, slots []models.TimeRange, clock24 bool) *Wizard {
	specChoices := make([]Choice, len(specs))
	for i, s := range specs {
		specChoices[i] = Choice{ID: s.ID, Label: s.Name}
	}
	steps := []Step{
		{Key: keySpecialization, Title: "Refer to", Choices: specChoices},
		sessionTypeStep(),
		preferenceStep(),
		dateStep(dates),
		slotStep(slots, clock24),
		confirmStep("Create referral"),
	}
	return New("Refer patient", steps)
}

// NewFollowUp builds the follow-up flow. Same shape as the referral minus the
// specialization step.
func NewFollowUp(dates []string, slots []models.TimeRange, clock24 bool) *Wizard {
	steps := []Step{
		sessionTypeStep(),
		preferenceStep(),
		dateStep(dates),
		slotStep(slots, clock24),
		confirmStep("Book follow-up"),
	}
	return New("Book follow-up", steps)
}

// BuildReferral converts a completed referral flow into the record the API
// expects.
func BuildReferral(result map[string]string, patientID string) models.Referral {
	return models.Referral{
		PatientID:        patientID,
		SpecializationID: result[keySpecialization],
		SessionType:      result[keySessionType],
		Preference:       result[keyPreference],
		SlotDate:         result[keySlotDate],
		SlotTime:         result[keySlotTime],
	}
}

// BuildFollowUp converts a completed follow-up flow into the record the API
// expects.
func BuildFollowUp(result map[string]string, appointmentID, patientID string) models.FollowUp {
	return models.FollowUp{
		AppointmentID: appointmentID,
		PatientID:     patientID,
		SessionType:   result[keySessionType],
		Preference:    result[keyPreference],
		SlotDate:      result[keySlotDate],
		SlotTime:      result[keySlotTime],
	}
}
