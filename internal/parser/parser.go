// Package parser turns the raw OCR or PDF text of an identity card into a
// structured Record.
//
// Extraction is a set of independent, best-effort pattern searches over the
// same source text. A rule that finds nothing leaves its field empty; no rule
// ever fails the whole record. Parser values are immutable and safe for
// concurrent use.
package parser

import (
	"fmt"
	"regexp"
)

// Parser extracts Records from document text.
type Parser struct {
	script   Script
	namePair *regexp.Regexp
}

// Option configures a Parser.
type Option func(*Parser)

// WithScript selects the regional script expected before the Latin name.
func WithScript(s Script) Option {
	return func(p *Parser) {
		p.script = s
	}
}

// New creates a Parser. Tamil is the default regional script.
func New(opts ...Option) *Parser {
	p := &Parser{script: Tamil}
	for _, opt := range opts {
		opt(p)
	}
	p.namePair = namePairPattern(p.script)
	return p
}

// namePairPattern matches a line of regional script characters followed by
// a newline and a run of Latin name characters.
func namePairPattern(s Script) *regexp.Regexp {
	block := fmt.Sprintf(`\x{%04X}-\x{%04X}`, s.First, s.Last)
	return regexp.MustCompile(`([` + block + `][` + block + ` \t]*)\n([A-Za-z\s'-]+)`)
}

// Script returns the regional script the parser was built for.
func (p *Parser) Script() Script {
	return p.script
}

// Parse extracts a Record from text.
func (p *Parser) Parse(text string) Record {
	return p.Extract(text, NormalizeLines(text))
}

// Extract builds a Record from text and its normalized lines. The line based
// name rule runs only when the name pair rule found no Latin name.
func (p *Parser) Extract(text string, lines []string) Record {
	native, name := findNamePair(p.namePair, text)
	if name == "" {
		name = findNameInLines(lines)
	}

	return Record{
		IDNumber:         findIDNumber(text),
		VirtualID:        findVirtualID(text),
		NameNativeScript: native,
		Name:             name,
		GuardianName:     findGuardianName(text),
		DateOfBirth:      findDateOfBirth(text),
		Gender:           findGender(text),
		Address:          findAddress(text),
		District:         findDistrict(text),
		State:            findState(text),
		Pincode:          findPincode(text),
		Phone:            findPhone(text),
	}
}

var defaultParser = New()

// Parse extracts a Record using the default Tamil parser.
func Parse(text string) Record {
	return defaultParser.Parse(text)
}
