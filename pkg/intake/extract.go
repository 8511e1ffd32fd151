package intake

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"e261-voice-be/pkg/compensation"
)

type extraction struct {
	fields       map[string]string
	invalidEmail bool
}

// extractor pulls claim fields out of one normalized utterance. Only fields
// that are still missing are looked for. The field currently being asked
// for is matched leniently.
type extractor struct {
	airports *compensation.Directory
	now      time.Time
}

func (e extractor) extract(text string, known map[string]string, pending string) extraction {
	out := extraction{fields: map[string]string{}}
	missing := func(k string) bool { return known[k] == "" }
	set := func(k, v string) {
		if v != "" && missing(k) {
			out.fields[k] = v
		}
	}

	email, invalid := extractEmail(text, pending == FieldContactEmail)
	if invalid {
		out.invalidEmail = true
	}
	set(FieldContactEmail, email)
	rest := reEmailLike.ReplaceAllString(text, " ")

	if missing(FieldPassengerName) {
		set(FieldPassengerName, extractName(rest, pending == FieldPassengerName))
	}
	if missing(FieldFlightNumber) {
		fn := extractFlightNumber(rest, pending == FieldFlightNumber)
		set(FieldFlightNumber, fn)
		if fn != "" && missing(FieldAirline) {
			set(FieldAirline, airlineByDesignator[fn[:2]])
		}
	}
	if missing(FieldDelayDate) {
		if d, ok := parseDate(rest, e.now); ok {
			set(FieldDelayDate, d)
		}
	}
	if missing(FieldAirline) && out.fields[FieldAirline] == "" {
		set(FieldAirline, extractAirline(rest, pending == FieldAirline))
	}
	if missing(FieldDepartureAirport) || missing(FieldArrivalAirport) {
		dep, arr := e.extractAirports(rest, pending)
		set(FieldDepartureAirport, dep)
		set(FieldArrivalAirport, arr)
	}
	if missing(FieldDelayHours) {
		set(FieldDelayHours, extractDelayHours(rest, pending == FieldDelayHours))
	}
	if missing(FieldDelayReason) {
		set(FieldDelayReason, extractDelayReason(rest))
	}
	if missing(FieldBookingReference) {
		set(FieldBookingReference, extractBookingReference(rest, pending == FieldBookingReference))
	}
	if missing(FieldAirlineResponse) {
		set(FieldAirlineResponse, extractAirlineResponse(text, pending == FieldAirlineResponse))
	}
	return out
}

var (
	reEmailLike   = regexp.MustCompile(`\S+@\S+`)
	reEmailStrict = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// extractEmail returns a valid address, or invalid=true when something that
// looks like an address was given but does not validate. When the address
// is being asked for, the spoken form "john dot doe at gmail dot com" is
// accepted too.
func extractEmail(text string, lenient bool) (string, bool) {
	if m := reEmailLike.FindString(text); m != "" {
		m = strings.TrimRightFunc(m, func(r rune) bool { return unicode.IsPunct(r) })
		m = strings.TrimLeftFunc(m, func(r rune) bool { return unicode.IsPunct(r) })
		if reEmailStrict.MatchString(m) {
			return strings.ToLower(m), false
		}
		return "", true
	}
	if !lenient {
		return "", false
	}
	t := " " + strings.ToLower(text) + " "
	if !strings.Contains(t, " at ") {
		return "", false
	}
	for _, lead := range []string{" my email is ", " my email address is ", " email is ", " it's ", " it is "} {
		if i := strings.Index(t, lead); i >= 0 {
			t = " " + t[i+len(lead):]
		}
	}
	t = strings.ReplaceAll(t, " at ", "@")
	t = strings.ReplaceAll(t, " dot ", ".")
	t = strings.ReplaceAll(t, " underscore ", "_")
	t = strings.ReplaceAll(t, " dash ", "-")
	t = strings.TrimRight(strings.Join(strings.Fields(t), ""), ".")
	if reEmailStrict.MatchString(t) {
		return t, false
	}
	return "", true
}

var (
	reNameStrong = regexp.MustCompile(`(?i)\b(?:my name is|my name's|name's|name is|call me|my full name is)\s+([a-z][a-z'\-]*(?:\s+[a-z][a-z'\-]*){0,3})`)
	reNameWeak   = regexp.MustCompile(`\b(?i:i am|i'm|im|this is|it's)\s+([A-Z][a-z'\-]+(?:\s+[A-Z][a-z'\-]+){0,3})`)

	nameStop = toSet("and", "but", "my", "from", "flying", "flew", "flight", "on", "i", "was", "with",
		"the", "a", "an", "calling", "here", "to", "so", "because", "trying", "looking", "not",
		"very", "really", "just", "delayed", "in", "at", "of", "for", "about", "please", "sure",
		"yes", "no", "it", "is", "we", "were", "had", "have", "travelling", "traveling", "email",
		"frustrated", "upset", "angry", "sorry", "hi", "hello", "thanks", "thank", "ok", "okay",
		"hmm", "um", "uh", "er", "don't", "know")

	nameLeadIns = []string{"my full name is", "my name is", "my name's", "name's", "name is", "i am", "i'm", "im", "this is", "it's", "it is", "call me"}
	greetings   = []string{"hi", "hello", "hey", "sure", "yes", "yeah", "ok", "okay", "well", "so"}
)

// Longest accepted passenger name, and longest single word in it.
const (
	maxNameLen     = 70
	maxNameWordLen = 30
)

func extractName(text string, lenient bool) string {
	for _, re := range []*regexp.Regexp{reNameStrong, reNameWeak} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := cutName(m[1]); n != "" {
				return n
			}
		}
	}
	if !lenient {
		return ""
	}
	t := strings.ToLower(trimPunct(text))
	for _, g := range greetings {
		t = strings.TrimPrefix(t, g+" ")
		t = strings.TrimPrefix(t, g+", ")
	}
	for _, l := range nameLeadIns {
		if strings.HasPrefix(t, l+" ") {
			t = t[len(l)+1:]
			break
		}
	}
	words := strings.Fields(t)
	if len(words) == 0 || len(words) > 4 {
		return ""
	}
	for _, w := range words {
		if !isNameWord(w) || nameStop[w] {
			return ""
		}
	}
	return boundedName(words)
}

func cutName(s string) string {
	var out []string
	for _, w := range strings.Fields(s) {
		if nameStop[strings.ToLower(w)] {
			break
		}
		out = append(out, w)
	}
	return boundedName(out)
}

// boundedName rejects names no passenger has, such as a spelled-out run of
// letters collapsed into one word.
func boundedName(words []string) string {
	if len(words) == 0 {
		return ""
	}
	for _, w := range words {
		if len(w) > maxNameWordLen {
			return ""
		}
	}
	name := strings.Join(words, " ")
	if len(name) > maxNameLen {
		return ""
	}
	return titleCase(name)
}

func isNameWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '\'' && r != '-' {
			return false
		}
	}
	return w != ""
}

var (
	reFlight    = regexp.MustCompile(`\b([A-Za-z]{2}|[A-Za-z]\d|\d[A-Za-z])(\s?)(\d{1,4})\b`)
	designators = toSet("is", "on", "to", "in", "at", "of", "my", "by", "as", "it", "no", "so",
		"we", "me", "he", "or", "an", "up", "us", "do", "go", "be", "am", "if", "was")
)

// extractFlightNumber accepts "BA123", "ba123" and "BA 123". A lowercase
// designator separated by a space ("is 6") only counts while the flight
// number is being asked for, and common words never count.
func extractFlightNumber(text string, lenient bool) string {
	for _, m := range reFlight.FindAllStringSubmatch(text, -1) {
		des, space, num := m[1], m[2], m[3]
		lower := strings.ToLower(des)
		if designators[lower] {
			continue
		}
		if unicode.IsDigit(rune(des[0])) && (lower[1] == 'h' || lower[1] == 'm') {
			continue
		}
		if space != "" && des != strings.ToUpper(des) && !lenient {
			continue
		}
		return strings.ToUpper(des) + num
	}
	return ""
}

var knownAirlines = map[string]string{
	"british airways": "British Airways", "lufthansa": "Lufthansa", "air france": "Air France",
	"klm": "KLM", "ryanair": "Ryanair", "easyjet": "easyJet", "easy jet": "easyJet",
	"wizz air": "Wizz Air", "wizzair": "Wizz Air", "wizz": "Wizz Air", "iberia": "Iberia",
	"vueling": "Vueling", "tap air portugal": "TAP Air Portugal", "tap portugal": "TAP Air Portugal",
	"sas": "SAS", "scandinavian airlines": "SAS", "finnair": "Finnair", "aer lingus": "Aer Lingus",
	"swiss": "Swiss", "austrian airlines": "Austrian Airlines", "austrian": "Austrian Airlines",
	"brussels airlines": "Brussels Airlines", "turkish airlines": "Turkish Airlines",
	"emirates": "Emirates", "qatar airways": "Qatar Airways", "qatar": "Qatar Airways",
	"etihad": "Etihad", "norwegian": "Norwegian", "jet2": "Jet2", "jet 2": "Jet2", "tui": "TUI",
	"virgin atlantic": "Virgin Atlantic", "eurowings": "Eurowings", "ita airways": "ITA Airways",
	"alitalia": "ITA Airways", "aegean": "Aegean", "lot polish airlines": "LOT Polish Airlines",
	"delta": "Delta", "united airlines": "United Airlines", "american airlines": "American Airlines",
	"air canada": "Air Canada", "loganair": "Loganair", "volotea": "Volotea",
	"transavia": "Transavia", "condor": "Condor", "icelandair": "Icelandair", "air europa": "Air Europa",
}

var airlineByDesignator = map[string]string{
	"BA": "British Airways", "LH": "Lufthansa", "AF": "Air France", "KL": "KLM", "FR": "Ryanair",
	"U2": "easyJet", "W6": "Wizz Air", "IB": "Iberia", "VY": "Vueling", "TP": "TAP Air Portugal",
	"SK": "SAS", "AY": "Finnair", "EI": "Aer Lingus", "LX": "Swiss", "OS": "Austrian Airlines",
	"SN": "Brussels Airlines", "TK": "Turkish Airlines", "EK": "Emirates", "QR": "Qatar Airways",
	"EY": "Etihad", "DY": "Norwegian", "LS": "Jet2", "BY": "TUI", "VS": "Virgin Atlantic",
	"EW": "Eurowings", "AZ": "ITA Airways", "A3": "Aegean", "LO": "LOT Polish Airlines",
	"DL": "Delta", "UA": "United Airlines", "AA": "American Airlines", "AC": "Air Canada",
	"HV": "Transavia", "V7": "Volotea", "FI": "Icelandair", "UX": "Air Europa", "DE": "Condor",
}

var reKnownAirline = func() *regexp.Regexp {
	names := make([]string, 0, len(knownAirlines))
	for k := range knownAirlines {
		names = append(names, regexp.QuoteMeta(k))
	}
	// longest first so "tap air portugal" wins over shorter aliases
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\b`)
}()

var (
	reFlyingWith   = regexp.MustCompile(`(?i)\b(?:flying|flew|travelling|traveling|booked)\s+with\s+([a-z][a-z ]{1,40})`)
	airlineLeadIns = []string{"i was flying with", "i flew with", "we flew with", "flying with", "i flew", "it was", "with", "on", "the"}
	fillers        = toSet("yes", "no", "yeah", "nope", "ok", "okay", "i don't know", "dont know", "not sure", "um", "uh")
)

func extractAirline(text string, lenient bool) string {
	if m := reKnownAirline.FindStringSubmatch(text); m != nil {
		return knownAirlines[strings.ToLower(m[1])]
	}
	if m := reFlyingWith.FindStringSubmatch(text); m != nil {
		if n := cutAt(m[1], placeStop, 4); n != "" {
			return titleCase(n)
		}
	}
	if !lenient {
		return ""
	}
	t := strings.ToLower(trimPunct(text))
	for _, l := range airlineLeadIns {
		t = strings.TrimSpace(strings.TrimPrefix(t, l+" "))
	}
	if t == "" || fillers[t] || unsure(t) || strings.ContainsAny(t, "0123456789@") || len(strings.Fields(t)) > 5 {
		return ""
	}
	return titleCase(t)
}

func unsure(t string) bool {
	for _, p := range []string{"not sure", "don't know", "dont know", "no idea", "can't remember", "cannot remember"} {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

var (
	reFromTo      = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+)`)
	reDepartFrom  = regexp.MustCompile(`(?i)\b(?:flying|flew|flight|departed|departing|leaving|left|took off)\s+from\s+(.+)`)
	reArriveTo    = regexp.MustCompile(`(?i)\b(?:flying|flew|flight|going|travelling|traveling|heading|bound)\s+(?:to|for)\s+(.+)`)
	reArriveAt    = regexp.MustCompile(`(?i)\b(?:arriv(?:e|ed|ing)|landed|landing|land)\s+(?:at|in)\s+(.+)`)
	reIATA        = regexp.MustCompile(`\b([A-Z]{3})\b`)
	reSentenceEnd = regexp.MustCompile(`[.!?;]`)

	placeStop = toSet("and", "but", "on", "with", "which", "was", "were", "it", "the", "flight",
		"airport", "international", "in", "at", "that", "because", "yesterday", "today", "last",
		"delayed", "for", "by", "via", "when", "where", "then", "so", "my", "a", "we", "i", "got", "to", "from")
	placeLeadIns = toSet("from", "to", "at", "in", "it", "was", "the", "i", "we", "departed",
		"flew", "arrived", "landed", "left", "airport", "of", "is")
)

// extractAirports looks for "from X to Y" and the one-sided variants. The
// airport currently being asked for is matched from the whole utterance.
func (e extractor) extractAirports(text, pending string) (dep, arr string) {
	for _, sentence := range reSentenceEnd.Split(text, -1) {
		if m := reFromTo.FindStringSubmatch(sentence); m != nil {
			if d := e.place(m[1]); d != "" {
				if a := e.place(m[2]); a != "" {
					return d, a
				}
			}
		}
	}
	if m := reDepartFrom.FindStringSubmatch(text); m != nil {
		dep = e.place(reSentenceEnd.Split(m[1], 2)[0])
	}
	if m := reArriveTo.FindStringSubmatch(text); m != nil {
		arr = e.place(reSentenceEnd.Split(m[1], 2)[0])
	}
	if arr == "" {
		if m := reArriveAt.FindStringSubmatch(text); m != nil {
			arr = e.place(reSentenceEnd.Split(m[1], 2)[0])
		}
	}
	if pending == FieldDepartureAirport && dep == "" {
		dep = e.pendingPlace(text)
	}
	if pending == FieldArrivalAirport && arr == "" {
		arr = e.pendingPlace(text)
	}
	return dep, arr
}

func (e extractor) pendingPlace(text string) string {
	if m := reIATA.FindStringSubmatch(text); m != nil {
		if a, ok := e.airports.ByIATA(m[1]); ok {
			return formatAirport(a)
		}
	}
	words := strings.Fields(strings.ToLower(trimPunct(text)))
	for len(words) > 0 && placeLeadIns[words[0]] {
		words = words[1:]
	}
	return e.place(strings.Join(words, " "))
}

// place resolves a spoken place against the airport directory. Unknown
// places are kept as "<Name> Airport".
func (e extractor) place(s string) string {
	s = cutAt(s, placeStop, 4)
	if s == "" || strings.ContainsAny(s, "0123456789@") {
		return ""
	}
	if a, ok := e.airports.Resolve(s); ok {
		return formatAirport(a)
	}
	if fillers[strings.ToLower(s)] {
		return ""
	}
	return titleCase(s) + " Airport"
}

func formatAirport(a compensation.Airport) string {
	return a.Name + " (" + a.IATA + ")"
}

var (
	reHoursMinutes = regexp.MustCompile(`(?i)\b(\d{1,2})\s*h\s*(\d{1,2})\s*(?:m|min|mins|minutes)?\b`)
	reHoursAndHalf = regexp.MustCompile(`(?i)\b(\d{1,2})\s+and\s+a\s+half\s+hours?\b`)
	reHours        = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	reHalfHour     = regexp.MustCompile(`(?i)\bhalf\s+an\s+hour\b`)
	reAnHour       = regexp.MustCompile(`(?i)\ban\s+hour\b`)
	reBareNumber   = regexp.MustCompile(`^\D*?(\d{1,2}(?:\.\d+)?)\D*$`)
)

func extractDelayHours(text string, lenient bool) string {
	if m := reHoursMinutes.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return formatHours(float64(h) + float64(mins)/60)
	}
	if m := reHoursAndHalf.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		return formatHours(float64(h) + 0.5)
	}
	if m := reHours.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return formatHours(v)
		}
	}
	if reHalfHour.MatchString(text) {
		return "0.5"
	}
	if reAnHour.MatchString(text) {
		return "1"
	}
	if lenient {
		if m := reBareNumber.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func formatHours(v float64) string {
	return strconv.FormatFloat(float64(int(v*100+0.5))/100, 'f', -1, 64)
}

var delayReasons = []struct {
	reason   string
	keywords []string
}{
	{"weather", []string{"weather", "storm", "snow", "fog", "wind", "thunder", "ice"}},
	{"technical", []string{"technical", "mechanical", "engine", "maintenance", "fault", "broken"}},
	{"strike", []string{"strike"}},
	{"crew", []string{"crew", "staff shortage", "pilot"}},
	{"air traffic control", []string{"air traffic", "atc"}},
	{"security", []string{"security"}},
	{"operational", []string{"operational", "late arrival of the aircraft", "late incoming"}},
}

func extractDelayReason(text string) string {
	t := strings.ToLower(text)
	for _, r := range delayReasons {
		for _, k := range r.keywords {
			if wordIn(t, k) || (strings.Contains(k, " ") && strings.Contains(t, k)) {
				return r.reason
			}
		}
	}
	return ""
}

var (
	reBookingRef = regexp.MustCompile(`(?i)\b(?:booking\s+(?:reference|ref|code|number)|reservation\s+(?:code|number)|confirmation\s+(?:code|number)|pnr)(?:\s+(?:is|was))?\s*:?\s*([a-z0-9]{5,8})\b`)
	reRefToken   = regexp.MustCompile(`^[A-Za-z0-9]{5,8}$`)
)

func extractBookingReference(text string, lenient bool) string {
	if m := reBookingRef.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if lenient {
		if t := trimPunct(text); reRefToken.MatchString(t) {
			return strings.ToUpper(t)
		}
	}
	return ""
}

var reAirlineResponse = regexp.MustCompile(`(?i)\b(?:the airline|airline|they)\s+(?:said|told|responded|replied|offered|refused|rejected|denied|ignored|gave|promised|apologi[sz]ed|haven't|hasn't|didn't|did not|never|have not)\b[^.!?]*`)

func extractAirlineResponse(text string, lenient bool) string {
	if m := reAirlineResponse.FindString(text); m != "" {
		return capitalize(strings.TrimSpace(m))
	}
	if lenient {
		t := strings.TrimSpace(text)
		if t != "" && !fillers[strings.ToLower(trimPunct(t))] {
			return capitalize(t)
		}
	}
	return ""
}

// yesNo classifies an answer: 1 yes, -1 no, 0 unclear.
func yesNo(text string) int {
	t := " " + strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'')
	}), " ") + " "
	yes, no := false, false
	for _, w := range []string{"yes", "yeah", "yep", "yup", "sure", "correct", "affirmative"} {
		if strings.Contains(t, " "+w+" ") {
			yes = true
		}
	}
	for _, w := range []string{"no", "nope", "nah", "never", "not", "haven't", "didn't", "hasn't"} {
		if strings.Contains(t, " "+w+" ") {
			no = true
		}
	}
	if !yes && !no && (strings.Contains(t, " i have ") || strings.Contains(t, " i did ")) {
		yes = true
	}
	switch {
	case yes && !no:
		return 1
	case no && !yes:
		return -1
	}
	return 0
}

func cutAt(s string, stop map[string]bool, max int) string {
	var out []string
	for _, w := range strings.Fields(trimPunct(s)) {
		lw := strings.ToLower(trimPunct(w))
		if stop[lw] {
			if len(out) == 0 && (lw == "the" || lw == "a") {
				continue
			}
			break
		}
		out = append(out, trimPunct(w))
		if len(out) == max {
			break
		}
	}
	return strings.Join(out, " ")
}

func trimPunct(s string) string {
	return strings.TrimFunc(strings.TrimSpace(s), func(r rune) bool { return unicode.IsPunct(r) && r != '\'' })
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
