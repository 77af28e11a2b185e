package parser

import (
	"sort"
	"strings"
)

// Script describes the regional writing system printed next to the Latin
// name on a card. The Unicode block drives the name pair rule and the OCR
// language code selects the matching Tesseract traineddata.
type Script struct {
	Name        string
	OCRLanguage string
	First       rune
	Last        rune
}

var (
	Tamil      = Script{Name: "tamil", OCRLanguage: "tam", First: 0x0B80, Last: 0x0BFF}
	Devanagari = Script{Name: "devanagari", OCRLanguage: "hin", First: 0x0900, Last: 0x097F}
	Bengali    = Script{Name: "bengali", OCRLanguage: "ben", First: 0x0980, Last: 0x09FF}
	Gurmukhi   = Script{Name: "gurmukhi", OCRLanguage: "pan", First: 0x0A00, Last: 0x0A7F}
	Gujarati   = Script{Name: "gujarati", OCRLanguage: "guj", First: 0x0A80, Last: 0x0AFF}
	Oriya      = Script{Name: "oriya", OCRLanguage: "ori", First: 0x0B00, Last: 0x0B7F}
	Telugu     = Script{Name: "telugu", OCRLanguage: "tel", First: 0x0C00, Last: 0x0C7F}
	Kannada    = Script{Name: "kannada", OCRLanguage: "kan", First: 0x0C80, Last: 0x0CFF}
	Malayalam  = Script{Name: "malayalam", OCRLanguage: "mal", First: 0x0D00, Last: 0x0D7F}
)

var scripts = map[string]Script{
	Tamil.Name:      Tamil,
	Devanagari.Name: Devanagari,
	Bengali.Name:    Bengali,
	Gurmukhi.Name:   Gurmukhi,
	Gujarati.Name:   Gujarati,
	Oriya.Name:      Oriya,
	Telugu.Name:     Telugu,
	Kannada.Name:    Kannada,
	Malayalam.Name:  Malayalam,
}

// LookupScript finds a script by its case-insensitive name.
func LookupScript(name string) (Script, bool) {
	s, ok := scripts[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// ScriptNames returns the supported script names in sorted order.
func ScriptNames() []string {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether r falls inside the script's Unicode block.
func (s Script) Contains(r rune) bool {
	return r >= s.First && r <= s.Last
}
