package tts

import (
	"regexp"
	"strings"
)

type currency struct {
	symbol   string
	singular string
	plural   string
}

var currencies = []currency{
	{"$", "dollar", "dollars"},
	{"€", "euro", "euros"},
	{"£", "pound", "pounds"},
}

// symbolWords maps symbols to their spoken form. Order matters: the
// ellipsis must be replaced before anything that could split it.
var symbolWords = []struct {
	symbol string
	word   string
}{
	{"...", ", dot dot dot"},
	{"…", ", dot dot dot"},
	{"&", " and "},
	{"+", " plus "},
	{"@", " at "},
	{"%", " percent "},
	{"=", " equals "},
	{"#", " number "},
	{"$", " dollar "},
	{"€", " euro "},
	{"£", " pound "},
}

var abbreviations = []struct {
	abbr string
	full string
}{
	{"Dr.", "Doctor"},
	{"Mr.", "Mister"},
	{"Mrs.", "Misses"},
	{"Ms.", "Miss"},
	{"Prof.", "Professor"},
	{"e.g.", "for example"},
	{"i.e.", "that is"},
	{"etc.", "etcetera"},
	{"vs.", "versus"},
	{"approx.", "approximately"},
}

var (
	currencyPattern = regexp.MustCompile(`([$€£])\s?(\d[\d,]*(?:\.\d+)?)`)
	spaceRun        = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunc = regexp.MustCompile(`[ \t]+([,.!?;:])`)

	abbreviationPatterns = compileAbbreviations()
)

func compileAbbreviations() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(abbreviations))
	for i, a := range abbreviations {
		// Only expand when the abbreviation is followed by whitespace or
		// ends the text.
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(a.abbr) + `(\s|$)`)
	}
	return patterns
}

// Preprocess rewrites symbols, currency amounts and common abbreviations
// into words an engine will pronounce. It is pure and idempotent.
func Preprocess(text string) string {
	// Spacing is normalized before symbols so that spaced dots such as
	// ". . ." join into an ellipsis now rather than on a second pass.
	text = normalizeSpacing(text)
	text = expandCurrency(text)

	for _, s := range symbolWords {
		text = strings.ReplaceAll(text, s.symbol, s.word)
	}

	// Every symbol word contains letters, so this pass cannot join dots.
	// It runs before abbreviations so "Dr ." cannot become "Dr." later.
	text = normalizeSpacing(text)

	for i, re := range abbreviationPatterns {
		text = re.ReplaceAllString(text, abbreviations[i].full+"${1}")
	}

	return strings.TrimSpace(text)
}

func normalizeSpacing(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	return spaceBeforePunc.ReplaceAllString(text, "${1}")
}

func expandCurrency(text string) string {
	return currencyPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := currencyPattern.FindStringSubmatch(m)
		amount := parts[2]
		for _, c := range currencies {
			if c.symbol != parts[1] {
				continue
			}
			if amount == "1" {
				return amount + " " + c.singular
			}
			return amount + " " + c.plural
		}
		return m
	})
}
