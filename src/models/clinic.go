// clinic.go - Records for the dashboard views: appointments, prescriptions,
// referrals, follow-ups and availability. These mirror the REST API payloads;
// all business rules live server-side.

package models

// Appointment is one booked consultation on the doctor's schedule.
type Appointment struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	Date        string `json:"date"`       // YYYY-MM-DD
	StartTime   string `json:"start_time"` // HH:MM, 24-hour
	EndTime     string `json:"end_time"`
	SessionType string `json:"session_type"` // "video", "audio", "in_person"
	Status      string `json:"status"`       // "pending", "confirmed", "completed", "cancelled"
	Complaint   string `json:"complaint,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Medicine is one line of a prescription.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Remarks   string `json:"remarks,omitempty"`
}

// TestOrder is a diagnostic test attached to a prescription.
type TestOrder struct {
	Name    string `json:"name"`
	Remarks string `json:"remarks,omitempty"`
}

// Prescription groups medicines, tests and advice authored after a
// consultation.
type Prescription struct {
	ID            string      `json:"id,omitempty"`
	AppointmentID string      `json:"appointment_id"`
	PatientID     string      `json:"patient_id"`
	Medicines     []Medicine  `json:"medicines"`
	Tests         []TestOrder `json:"tests,omitempty"`
	Advice        string      `json:"advice,omitempty"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

// Specialization is a referral target offered by the platform.
type Specialization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Referral sends a patient to another specialist. Built by the referral
// wizard and posted as-is.
type Referral struct {
	ID               string `json:"id,omitempty"`
	PatientID        string `json:"patient_id"`
	SpecializationID string `json:"specialization_id"`
	SessionType      string `json:"session_type"`
	Preference       string `json:"preference"` // "morning", "afternoon", "evening"
	SlotDate         string `json:"slot_date"`
	SlotTime         string `json:"slot_time"`
	Reason           string `json:"reason,omitempty"`
}

// FollowUp books a return visit for an existing patient. Same wizard shape
// as Referral minus the specialization step.
type FollowUp struct {
	ID            string `json:"id,omitempty"`
	AppointmentID string `json:"appointment_id"`
	PatientID     string `json:"patient_id"`
	SessionType   string `json:"session_type"`
	Preference    string `json:"preference"`
	SlotDate      string `json:"slot_date"`
	SlotTime      string `json:"slot_time"`
	Advice        string `json:"advice,omitempty"`
}

// TimeRange is a half-open [Start, End) range within one day, HH:MM 24-hour.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayAvailability lists the bookable ranges for one weekday.
type DayAvailability struct {
	Weekday int         `json:"weekday"` // time.Weekday numbering, Sunday = 0
	Ranges  []TimeRange `json:"ranges"`
}

// BlockedSlot marks a one-off slot on a specific date as unavailable,
// overriding the weekly pattern.
type BlockedSlot struct {
	ID     string `json:"id,omitempty"`
	Date   string `json:"date"` // YYYY-MM-DD
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason,omitempty"`
}

// Doctor is the signed-in practitioner as reported by the profile endpoint.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
	Phone          string `json:"phone,omitempty"`
}
