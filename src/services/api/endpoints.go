// endpoints.go - Typed wrappers over the backend's REST endpoints. Thin by
// design: validation, conflict resolution and persistence are server-side.

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"teledesk/src/models"
)

// TokenPair is what a successful OTP verification returns.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	CSRF    string `json:"csrf_token"`
}

// RequestOTP asks the backend to text a one-time code to phone.
func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	in := map[string]string{"phone": phone}
	return c.doUnauthenticated(ctx, http.MethodPost, "/api/auth/otp/request/", in, nil)
}

// VerifyOTP trades the code for a token pair.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (TokenPair, error) {
	in := map[string]string{"phone": phone, "otp": code}
	var out TokenPair
	err := c.doUnauthenticated(ctx, http.MethodPost, "/api/auth/otp/verify/", in, &out)
	return out, err
}

// Profile fetches the signed-in doctor's record.
func (c *Client) Profile(ctx context.Context) (models.Doctor, error) {
	var out models.Doctor
	err := c.do(ctx, http.MethodGet, "/api/profile/", nil, &out)
	return out, err
}

// Appointments lists the doctor's appointments, optionally filtered by
// status ("pending", "confirmed", "completed", "cancelled").
func (c *Client) Appointments(ctx context.Context, status string) ([]models.Appointment, error) {
	path := "/api/appointments/"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []models.Appointment
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Appointment fetches one appointment.
func (c *Client) Appointment(ctx context.Context, id string) (models.Appointment, error) {
	var out models.Appointment
	err := c.do(ctx, http.MethodGet, "/api/appointments/"+url.PathEscape(id)+"/", nil, &out)
	return out, err
}

// ConfirmAppointment accepts a pending booking.
func (c *Client) ConfirmAppointment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/appointments/"+url.PathEscape(id)+"/confirm/", nil, nil)
}

// CancelAppointment cancels a booking with a reason shown to the patient.
func (c *Client) CancelAppointment(ctx context.Context, id, reason string) error {
	in := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/api/appointments/"+url.PathEscape(id)+"/cancel/", in, nil)
}

// AddConsultationNote attaches the doctor's note to a completed visit.
func (c *Client) AddConsultationNote(ctx context.Context, id, note string) error {
	in := map[string]string{"note": note}
	return c.do(ctx, http.MethodPatch, "/api/appointments/"+url.PathEscape(id)+"/", in, nil)
}

// CreatePrescription submits an authored prescription.
func (c *Client) CreatePrescription(ctx context.Context, p models.Prescription) (models.Prescription, error) {
	var out models.Prescription
	err := c.do(ctx, http.MethodPost, "/api/prescriptions/", p, &out)
	return out, err
}

// PatientPrescriptions lists prior prescriptions for one patient.
func (c *Client) PatientPrescriptions(ctx context.Context, patientID string) ([]models.Prescription, error) {
	var out []models.Prescription
	err := c.do(ctx, http.MethodGet, "/api/patients/"+url.PathEscape(patientID)+"/prescriptions/", nil, &out)
	return out, err
}

// Specializations lists referral targets for the wizard's first step.
func (c *Client) Specializations(ctx context.Context) ([]models.Specialization, error) {
	var out []models.Specialization
	err := c.do(ctx, http.MethodGet, "/api/referrals/specializations/", nil, &out)
	return out, err
}

// CreateReferral posts a wizard-built referral.
func (c *Client) CreateReferral(ctx context.Context, r models.Referral) (models.Referral, error) {
	var out models.Referral
	err := c.do(ctx, http.MethodPost, "/api/referrals/", r, &out)
	return out, err
}

// CreateFollowUp posts a wizard-built follow-up booking.
func (c *Client) CreateFollowUp(ctx context.Context, f models.FollowUp) (models.FollowUp, error) {
	var out models.FollowUp
	err := c.do(ctx, http.MethodPost, "/api/followups/", f, &out)
	return out, err
}

// Availability fetches the doctor's weekly availability.
func (c *Client) Availability(ctx context.Context) ([]models.DayAvailability, error) {
	var out []models.DayAvailability
	err := c.do(ctx, http.MethodGet, "/api/availability/", nil, &out)
	return out, err
}

// SetDayAvailability replaces the bookable ranges for one weekday.
func (c *Client) SetDayAvailability(ctx context.Context, day models.DayAvailability) error {
	path := fmt.Sprintf("/api/availability/%d/", day.Weekday)
	return c.do(ctx, http.MethodPut, path, day, nil)
}

// BlockedSlots lists one-off blocked slots overriding the weekly pattern.
func (c *Client) BlockedSlots(ctx context.Context) ([]models.BlockedSlot, error) {
	var out []models.BlockedSlot
	err := c.do(ctx, http.MethodGet, "/api/availability/blocks/", nil, &out)
	return out, err
}

// BlockSlot marks one slot on one date as unavailable.
func (c *Client) BlockSlot(ctx context.Context, s models.BlockedSlot) (models.BlockedSlot, error) {
	var out models.BlockedSlot
	err := c.do(ctx, http.MethodPost, "/api/availability/blocks/", s, &out)
	return out, err
}

// UnblockSlot removes a one-off block.
func (c *Client) UnblockSlot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/availability/blocks/"+url.PathEscape(id)+"/", nil, nil)
}

// ChatSessions lists the conversations shown in the sidebar.
func (c *Client) ChatSessions(ctx context.Context) ([]models.ChatSession, error) {
	var out []models.ChatSession
	err := c.do(ctx, http.MethodGet, "/api/chat/sessions/", nil, &out)
	return out, err
}
