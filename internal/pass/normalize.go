package pass

import (
	"strings"
	"sync"
	"unicode"
)

var corporateTokens = map[string]bool{
	"co":          true,
	"ltd":         true,
	"inc":         true,
	"corp":        true,
	"corporation": true,
	"company":     true,
	"limited":     true,
}

var corporateMarks = []string{"株式会社", "(株)", "（株）"}

// aliases maps normalized spellings to one canonical operator name.
var aliases = map[string]string{
	"east japan railway":    "jr east",
	"東日本旅客鉄道":               "jr east",
	"jr東日本":                 "jr east",
	"central japan railway": "jr central",
	"東海旅客鉄道":                "jr central",
	"jr東海":                  "jr central",
	"west japan railway":    "jr west",
	"西日本旅客鉄道":               "jr west",
	"jr西日本":                 "jr west",
	"hokkaido railway":      "jr hokkaido",
	"北海道旅客鉄道":               "jr hokkaido",
	"jr北海道":                 "jr hokkaido",
	"shikoku railway":       "jr shikoku",
	"四国旅客鉄道":                "jr shikoku",
	"jr四国":                  "jr shikoku",
	"kyushu railway":        "jr kyushu",
	"九州旅客鉄道":                "jr kyushu",
	"jr九州":                  "jr kyushu",
	"東京地下鉄":                 "tokyo metro",
	"東京メトロ":                 "tokyo metro",
	"東京都交通局":                "toei",
	"toei subway":           "toei",

	"tokyo metropolitan bureau of transportation": "toei",
}

var normalized sync.Map

// NormalizeOperator lowercases name, drops corporate suffix tokens and maps
// known alternative names onto a canonical one.
func NormalizeOperator(name string) string {
	if v, ok := normalized.Load(name); ok {
		return v.(string)
	}

	s := strings.ToLower(name)
	for _, mark := range corporateMarks {
		s = strings.ReplaceAll(s, mark, " ")
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.' || r == '-' || r == '_'
	})
	kept := fields[:0]
	for _, f := range fields {
		if !corporateTokens[f] {
			kept = append(kept, f)
		}
	}
	s = strings.Join(kept, " ")
	if canonical, ok := aliases[s]; ok {
		s = canonical
	}

	normalized.Store(name, s)
	return s
}

// IsJRFamily reports whether a normalized operator name belongs to one of the
// JR group companies.
func IsJRFamily(normalizedOperator string) bool {
	return strings.HasPrefix(normalizedOperator, "jr") || strings.Contains(normalizedOperator, "旅客鉄道")
}

// IsBulletLine reports whether a line name denotes a shinkansen line.
func IsBulletLine(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "shinkansen") || strings.Contains(l, "新幹線")
}

func isBulletService(service string) bool {
	s := strings.ToLower(strings.TrimSpace(service))
	return s == "shinkansen" || s == "新幹線" || s == "bullet"
}
