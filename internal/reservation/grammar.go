package reservation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	"github.com/devdanielvaldez/autoclinic-bot/internal/messaging"
)

// AffirmativeGrammar accepts a confirmation word anywhere in the input as a
// whole word, so "si" matches "Sí, correcto" but not "casi".
type AffirmativeGrammar struct{}

var affirmativeWords = map[string]struct{}{
	"sí": {}, "si": {}, "yes": {}, "confirmo": {}, "correcto": {}, "ok": {},
}

func (AffirmativeGrammar) Match(input string) bool {
	words := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if _, ok := affirmativeWords[w]; ok {
			return true
		}
	}
	return false
}

// PhoneGrammar accepts input carrying at least MinDigits digits and returns
// it normalized.
type PhoneGrammar struct {
	MinDigits int
}

func (g PhoneGrammar) Parse(input string) (string, bool) {
	need := g.MinDigits
	if need <= 0 {
		need = 10
	}
	if messaging.CountDigits(input) < need {
		return "", false
	}
	return messaging.NormalizePhone(input), true
}

var standaloneInt = regexp.MustCompile(`\b\d+\b`)

// SelectionGrammar extracts the first standalone integer and checks it
// against the 1-based range [1, Max].
type SelectionGrammar struct {
	Max int
}

func (g SelectionGrammar) Parse(input string) (int, bool) {
	m := standaloneInt.FindString(input)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > g.Max {
		return 0, false
	}
	return n, true
}

// SizeGrammar maps 1, 2 and 3 to the vehicle sizes.
type SizeGrammar struct{}

var sizeOrder = []catalog.VehicleSize{catalog.SizeSmall, catalog.SizeMedium, catalog.SizeLarge}

func (SizeGrammar) Parse(input string) (catalog.VehicleSize, bool) {
	n, ok := SelectionGrammar{Max: len(sizeOrder)}.Parse(input)
	if !ok {
		return "", false
	}
	return sizeOrder[n-1], true
}

// VehicleInfoGrammar accepts free text of at least MinLength characters
// after trimming. The accepted value is the input verbatim.
type VehicleInfoGrammar struct {
	MinLength int
}

func (g VehicleInfoGrammar) Parse(input string) (string, bool) {
	need := g.MinLength
	if need <= 0 {
		need = 3
	}
	if len([]rune(strings.TrimSpace(input))) < need {
		return "", false
	}
	return input, true
}

// DateGrammar accepts D/M/YYYY through DD/MM/YYYY. It does not check that the
// day exists; 31/4/2024 passes.
type DateGrammar struct{}

var datePattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)

func (DateGrammar) Parse(input string) (string, bool) {
	if !datePattern.MatchString(input) {
		return "", false
	}
	return input, true
}

// TimeGrammar accepts hours 8 to 17 with minutes and an AM/PM suffix,
// returning the value upper-cased.
type TimeGrammar struct{}

var timePattern = regexp.MustCompile(`^(0?[8-9]|1[0-7]):[0-5][0-9]\s?(AM|PM|am|pm)$`)

func (TimeGrammar) Parse(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if !timePattern.MatchString(trimmed) {
		return "", false
	}
	return strings.ToUpper(trimmed), true
}

// Slots lists the on-the-hour times the grammar accepts.
func (TimeGrammar) Slots() []string {
	slots := make([]string, 0, 10)
	for h := 8; h <= 17; h++ {
		suffix := "AM"
		if h >= 12 {
			suffix = "PM"
		}
		slots = append(slots, fmt.Sprintf("%d:00 %s", h, suffix))
	}
	return slots
}
