package intake

import (
	"strconv"
	"strings"
	"unicode"
)

var (
	unitWords = map[string]int{
		"zero": 0, "oh": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9,
	}
	teenWords = map[string]int{
		"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
		"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	}
	tensWords = map[string]int{
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
	ordinalWords = map[string]int{
		"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6,
		"seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11,
		"twelfth": 12, "thirteenth": 13, "fourteenth": 14, "fifteenth": 15,
		"sixteenth": 16, "seventeenth": 17, "eighteenth": 18, "nineteenth": 19,
		"twentieth": 20, "thirtieth": 30,
	}
)

func isNumberWord(w string) bool {
	if w == "oh" {
		return false
	}
	_, u := unitWords[w]
	_, t := teenWords[w]
	_, d := tensWords[w]
	_, o := ordinalWords[w]
	return u || t || d || o || w == "hundred" || w == "thousand"
}

// Normalize cleans a transcribed utterance: stutters such as "my my name"
// are collapsed, spelled-out numbers become digits and spaced letters or
// digits ("b a one two three") are joined ("ba123").
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	s = collapseRepeats(s)
	s = wordsToDigits(s)
	return joinSpelled(s)
}

func collapseRepeats(s string) string {
	toks := strings.Fields(s)
	out := make([]string, 0, len(toks))
	for i, t := range toks {
		if i > 0 && strings.EqualFold(t, toks[i-1]) && !isNumberWord(strings.ToLower(t)) && !isDigits(t) {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

type numTok struct {
	core   string
	suffix string
}

func splitPunct(tok string) numTok {
	core := strings.TrimRightFunc(tok, func(r rune) bool { return unicode.IsPunct(r) })
	return numTok{core: strings.ToLower(core), suffix: tok[len(core):]}
}

// wordsToDigits replaces spoken number phrases with digits. Consecutive
// units stay separate numbers so that spelled sequences survive.
func wordsToDigits(s string) string {
	var toks []string
	for _, t := range strings.Fields(s) {
		if strings.Contains(t, "-") {
			parts := strings.Split(t, "-")
			all := true
			for _, p := range parts {
				if !isNumberWord(splitPunct(p).core) {
					all = false
					break
				}
			}
			if all {
				toks = append(toks, parts...)
				continue
			}
		}
		toks = append(toks, t)
	}

	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); {
		v, n, suffix := parseNumber(toks, i)
		if n == 0 {
			out = append(out, toks[i])
			i++
			continue
		}
		out = append(out, strconv.Itoa(v)+suffix)
		i += n
	}
	return strings.Join(out, " ")
}

// parseNumber reads a number phrase at toks[i]. n is the number of tokens
// consumed, zero when toks[i] does not start one.
func parseNumber(toks []string, i int) (value, n int, suffix string) {
	first := splitPunct(toks[i])
	if !isNumberWord(first.core) {
		return 0, 0, ""
	}

	// "twenty twenty five", "nineteen ninety nine"
	if (first.core == "twenty" || first.core == "nineteen") && first.suffix == "" && i+1 < len(toks) {
		next := splitPunct(toks[i+1]).core
		_, tens := tensWords[next]
		_, teen := teenWords[next]
		if tens || teen {
			rest, m, suf := parseTwoDigit(toks, i+1)
			if m > 0 {
				base := 2000
				if first.core == "nineteen" {
					base = 1900
				}
				return base + rest, m + 1, suf
			}
		}
	}

	total, cur := 0, 0
	last := ""
	for j := i; j < len(toks); j++ {
		t := splitPunct(toks[j])
		w := t.core
		kind := ""
		switch {
		case w == "and" && j > i && (last == "hundred" || last == "thousand") && j+1 < len(toks) && isNumberWord(splitPunct(toks[j+1]).core):
			continue
		case w == "hundred":
			if cur == 0 {
				cur = 1
			}
			cur *= 100
			kind = "hundred"
		case w == "thousand":
			if cur == 0 {
				cur = 1
			}
			total += cur * 1000
			cur = 0
			kind = "thousand"
		default:
			if v, ok := unitWords[w]; ok && w != "oh" {
				if last == "unit" || last == "teen" {
					return total + cur, j - i, suffix
				}
				cur += v
				kind = "unit"
			} else if v, ok := teenWords[w]; ok {
				if last == "unit" || last == "teen" || last == "tens" {
					return total + cur, j - i, suffix
				}
				cur += v
				kind = "teen"
			} else if v, ok := tensWords[w]; ok {
				if last == "unit" || last == "teen" || last == "tens" {
					return total + cur, j - i, suffix
				}
				cur += v
				kind = "tens"
			} else if v, ok := ordinalWords[w]; ok {
				if (last == "unit" || last == "teen") || (last == "tens" && v >= 10) {
					return total + cur, j - i, suffix
				}
				return total + cur + v, j - i + 1, t.suffix
			} else {
				return total + cur, j - i, suffix
			}
		}
		last = kind
		suffix = t.suffix
		if t.suffix != "" {
			return total + cur, j - i + 1, suffix
		}
	}
	return total + cur, len(toks) - i, suffix
}

// parseTwoDigit reads "twenty five", "ninety" or "nineteen".
func parseTwoDigit(toks []string, i int) (int, int, string) {
	t := splitPunct(toks[i])
	if v, ok := teenWords[t.core]; ok {
		return v, 1, t.suffix
	}
	v, ok := tensWords[t.core]
	if !ok {
		return 0, 0, ""
	}
	if t.suffix == "" && i+1 < len(toks) {
		u := splitPunct(toks[i+1])
		if uv, ok := unitWords[u.core]; ok && u.core != "oh" && uv > 0 {
			return v + uv, 2, u.suffix
		}
	}
	return v, 1, t.suffix
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func singleAlnum(s string) bool {
	r := []rune(s)
	return len(r) == 1 && (unicode.IsLetter(r[0]) || unicode.IsDigit(r[0]))
}

// joinSpelled merges runs of single characters. A run of letters swallows a
// following run of digits so "b a 1 2 3" and "b a 123" both become "ba123".
func joinSpelled(s string) string {
	toks := strings.Fields(s)
	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); {
		if !singleAlnum(toks[i]) {
			out = append(out, toks[i])
			i++
			continue
		}
		j := i
		for j < len(toks) && singleAlnum(toks[j]) {
			j++
		}
		// "a 6 hour delay" and "i 2" are not spelled codes
		if j-i < 2 || (j-i == 2 && (strings.EqualFold(toks[i], "a") || strings.EqualFold(toks[i], "i"))) {
			out = append(out, toks[i])
			i++
			continue
		}
		joined := strings.Join(toks[i:j], "")
		if isLetters(joined) && j < len(toks) && isDigits(toks[j]) {
			joined += toks[j]
			j++
		}
		out = append(out, joined)
		i = j
	}
	return strings.Join(out, " ")
}
