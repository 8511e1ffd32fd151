// Package compensation estimates EU261 delay compensation from the great
// circle distance between two airports and the length of the delay.
package compensation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

type Band string

const (
	BandNone           Band = "none"
	BandShort          Band = "up_to_1500_km"
	BandMedium         Band = "1500_to_3500_km"
	BandLong           Band = "over_3500_km"
	shortLimitKm            = 1500.0
	mediumLimitKm           = 3500.0
	minDelayHours           = 3.0
	longHaulDelayHours      = 4.0
)

var ErrUnknownAirport = errors.New("compensation: unknown airport")

type Result struct {
	DistanceKm float64 `json:"distance_km"`
	DelayHours float64 `json:"delay_hours"`
	Eligible   bool    `json:"eligible"`
	AmountEUR  int     `json:"amount_eur"`
	Band       Band    `json:"band"`
}

type Estimate struct {
	Origin       Airport `json:"origin"`
	Destination  Airport `json:"destination"`
	DistanceKm   float64 `json:"distance_km"`
	DelayHours   float64 `json:"delay_hours"`
	Compensation Result  `json:"compensation"`
}

// HaversineKm returns the great circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Classify applies the simplified EU261 table: any delay of 3h or more is
// eligible and the amount depends only on distance.
func Classify(distanceKm, delayHours float64) Result {
	r := Result{DistanceKm: round1(distanceKm), DelayHours: delayHours, Band: BandNone}
	if delayHours < minDelayHours {
		return r
	}
	r.Eligible = true
	switch {
	case distanceKm <= shortLimitKm:
		r.AmountEUR, r.Band = 250, BandShort
	case distanceKm <= mediumLimitKm:
		r.AmountEUR, r.Band = 400, BandMedium
	default:
		r.AmountEUR, r.Band = 600, BandLong
	}
	return r
}

// Amount is the stricter variant used when filling in a claim: long haul
// flights need a 4h delay.
func Amount(distanceKm, delayHours float64) int {
	switch {
	case distanceKm <= shortLimitKm:
		if delayHours >= minDelayHours {
			return 250
		}
	case distanceKm <= mediumLimitKm:
		if delayHours >= minDelayHours {
			return 400
		}
	default:
		if delayHours >= longHaulDelayHours {
			return 600
		}
	}
	return 0
}

// FormatEUR renders an amount the way claims carry it, e.g. "€250.00".
func FormatEUR(amount int) string {
	return fmt.Sprintf("€%d.00", amount)
}

// EstimateByIATA resolves both codes and classifies the flight.
func (d *Directory) EstimateByIATA(origin, dest string, delayHours float64) (*Estimate, error) {
	o, ok := d.ByIATA(origin)
	if !ok {
		return nil, fmt.Errorf("origin %q: %w", origin, ErrUnknownAirport)
	}
	t, ok := d.ByIATA(dest)
	if !ok {
		return nil, fmt.Errorf("destination %q: %w", dest, ErrUnknownAirport)
	}
	dist := HaversineKm(o.Lat, o.Lon, t.Lat, t.Lon)
	return &Estimate{
		Origin:       o,
		Destination:  t,
		DistanceKm:   round1(dist),
		DelayHours:   delayHours,
		Compensation: Classify(dist, delayHours),
	}, nil
}

// AmountFor resolves free-form airport names and a delay string as they come
// out of a conversation. ok is false when anything cannot be resolved.
func (d *Directory) AmountFor(departure, arrival, delay string) (string, bool) {
	if departure == "" || arrival == "" || delay == "" {
		return "", false
	}
	hours, err := ParseHours(delay)
	if err != nil {
		return "", false
	}
	a, ok := d.Resolve(departure)
	if !ok {
		return "", false
	}
	b, ok := d.Resolve(arrival)
	if !ok {
		return "", false
	}
	return FormatEUR(Amount(HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon), hours)), true
}

// ParseHours reads the leading number of s, e.g. "6", "6.5" or "6 hours".
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	return strconv.ParseFloat(s[:end], 64)
}
