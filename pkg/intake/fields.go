package intake

// Claim field keys as stored in a session.
const (
	FieldPassengerName      = "passengerName"
	FieldContactEmail       = "contactEmail"
	FieldBookingReference   = "bookingReference"
	FieldFlightNumber       = "flightNumber"
	FieldDelayDate          = "delayDate"
	FieldAirline            = "airline"
	FieldDepartureAirport   = "departureAirport"
	FieldArrivalAirport     = "arrivalAirport"
	FieldDelayHours         = "delayHours"
	FieldDelayReason        = "delayReason"
	FieldAirlineResponse    = "airlineResponse"
	FieldClaimStatus        = "claimStatus"
	FieldCompensationAmount = "compensationAmount"
)

// DefaultRequired is the order in which missing fields are asked for.
var DefaultRequired = []string{
	FieldPassengerName,
	FieldContactEmail,
	FieldFlightNumber,
	FieldDelayDate,
	FieldAirline,
	FieldDepartureAirport,
	FieldArrivalAirport,
	FieldDelayHours,
	FieldAirlineResponse,
	FieldClaimStatus,
}

// Labels are human readable field names.
var Labels = map[string]string{
	FieldPassengerName:      "Passenger Name",
	FieldContactEmail:       "Contact Email",
	FieldBookingReference:   "Booking Reference",
	FieldFlightNumber:       "Flight Number",
	FieldDelayDate:          "Flight Date",
	FieldAirline:            "Airline",
	FieldDepartureAirport:   "Departure Airport",
	FieldArrivalAirport:     "Arrival Airport",
	FieldDelayHours:         "Delay Hours",
	FieldDelayReason:        "Delay Reason",
	FieldAirlineResponse:    "Airline Response",
	FieldClaimStatus:        "Claim Status",
	FieldCompensationAmount: "Compensation Amount",
}

// KnownField reports whether key is a claim field.
func KnownField(key string) bool {
	_, ok := Labels[key]
	return ok
}

// Claim status values.
const (
	ClaimStatusNew      = "New Claim"
	ClaimStatusPending  = "Pending"
	ClaimStatusResolved = "Resolved"
)

func nextMissing(required []string, fields map[string]string) string {
	for _, k := range required {
		if fields[k] == "" {
			return k
		}
	}
	return ""
}
