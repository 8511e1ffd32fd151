package mapper

import (
	"fmt"
	"strings"

	"e261-voice-be/pkg/crm/zoho"
	"e261-voice-be/pkg/intake"
)

const (
	LeadSource        = "Voice AI Website"
	defaultCompany    = "Flight Delay Claim"
	defaultLeadStatus = "New"
)

type LeadMapper struct{}

func NewLeadMapper() *LeadMapper {
	return &LeadMapper{}
}

// ClaimToLead maps collected claim fields onto a CRM lead. A single word
// name is used as both first and last name.
func (m *LeadMapper) ClaimToLead(fields map[string]string) zoho.Lead {
	first, last := splitName(fields[intake.FieldPassengerName])

	company := fields[intake.FieldAirline]
	if company == "" {
		company = defaultCompany
	}
	status := fields[intake.FieldClaimStatus]
	if status == "" {
		status = defaultLeadStatus
	}

	return zoho.Lead{
		FirstName:          first,
		LastName:           last,
		Email:              fields[intake.FieldContactEmail],
		Company:            company,
		LeadSource:         LeadSource,
		LeadStatus:         status,
		Description:        m.Description(fields),
		FlightNumber:       fields[intake.FieldFlightNumber],
		FlightDate:         fields[intake.FieldDelayDate],
		DepartureAirport:   fields[intake.FieldDepartureAirport],
		ArrivalAirport:     fields[intake.FieldArrivalAirport],
		DelayHours:         fields[intake.FieldDelayHours],
		CompensationAmount: fields[intake.FieldCompensationAmount],
		AirlineResponse:    fields[intake.FieldAirlineResponse],
		BookingReference:   fields[intake.FieldBookingReference],
	}
}

func (m *LeadMapper) Description(fields map[string]string) string {
	lines := []string{"Flight Delay Claim Details:"}
	add := func(format, key string) {
		if v := fields[key]; v != "" {
			lines = append(lines, fmt.Sprintf(format, v))
		}
	}
	add("Flight: %s", intake.FieldFlightNumber)
	add("Date: %s", intake.FieldDelayDate)
	add("Delay: %s hours", intake.FieldDelayHours)
	if dep, arr := fields[intake.FieldDepartureAirport], fields[intake.FieldArrivalAirport]; dep != "" && arr != "" {
		lines = append(lines, fmt.Sprintf("Route: %s → %s", dep, arr))
	}
	add("Reason: %s", intake.FieldDelayReason)
	add("Airline Response: %s", intake.FieldAirlineResponse)
	add("Estimated Compensation: %s", intake.FieldCompensationAmount)
	return strings.Join(lines, "\n")
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}
