package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Patterns shared by the extraction rules. Each rule searches the original
// text; nothing is consumed, so one substring may feed several fields.
var (
	idNumberPattern  = regexp.MustCompile(`\b(\d{4} \d{4} \d{4})\b`)
	virtualIDPattern = regexp.MustCompile(`(?i)VID[:\s]*(\d{4} \d{4} \d{4} \d{4})`)
	guardianPattern  = regexp.MustCompile(`(?i)[SCDW]/o[.:]?\s*([A-Za-z\s'-]+)`)
	birthDatePattern = regexp.MustCompile(`(?i)(?:DOB|Date of Birth|D\.O\.B\.?)[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{4})`)
	genderPattern    = regexp.MustCompile(`(?i)\b(Male|Female|Transgender|M|F|T)\b`)
	districtPattern  = regexp.MustCompile(`(?i)\bDistrict\b[:\s]*(.*)`)
	statePattern     = regexp.MustCompile(`(?i)\bState\b[:\s]*(.*)`)
	pincodePattern   = regexp.MustCompile(`\b(\d{6})\b`)
	phonePattern     = regexp.MustCompile(`\b(\d{10})\b`)

	addressLabelPattern      = regexp.MustCompile(`(?i)address[:\s]*`)
	addressTerminatorPattern = regexp.MustCompile(`(?i)\n(?:District|State|\d{6}|VID|Digitally)`)
	relationFragmentPattern  = regexp.MustCompile(`(?i)[SCDW]/o[.:]?\s*[A-Za-z\s'-]+`)
	postOfficePattern        = regexp.MustCompile(`PO:.*?,`)
	addressTailPattern       = regexp.MustCompile(`(?is)\b(?:dist|state)\b.*`)

	relationMarkerPattern  = regexp.MustCompile(`(?i)\s*[SCWD]/O[.:]?\s*`)
	trailingInitialPattern = regexp.MustCompile(`\s+[CWSD]\s*$`)
	latinLinePattern       = regexp.MustCompile(`^[A-Za-z\s'-]+$`)
	whitespacePattern      = regexp.MustCompile(`\s+`)
)

// boilerplatePhrases never name the card holder even though they look like
// Latin-only name lines.
var boilerplatePhrases = []string{
	"digitally signed by ds unique",
	"identification authority of india",
	"government of india",
	"signature not verified",
}

// firstGroup returns the first capture group of the leftmost match, or "".
func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func findIDNumber(text string) string {
	return firstGroup(idNumberPattern, text)
}

func findVirtualID(text string) string {
	return firstGroup(virtualIDPattern, text)
}

// findNamePair looks for a regional script line directly followed by the
// Latin rendering of the same name.
func findNamePair(re *regexp.Regexp, text string) (native, latin string) {
	m := re.FindStringSubmatch(text)
	if len(m) < 3 {
		return "", ""
	}
	return strings.TrimSpace(m[1]), cleanName(m[2])
}

// cleanName reduces a name candidate to the holder's own name: the part
// before any relationship marker, minus a dangling S/C/W/D initial left
// behind when OCR stopped at the marker's slash.
func cleanName(candidate string) string {
	name := strings.TrimSpace(candidate)
	name = strings.ReplaceAll(name, "\n", " ")
	if loc := relationMarkerPattern.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(trailingInitialPattern.ReplaceAllString(name, ""))
	return whitespacePattern.ReplaceAllString(name, " ")
}

// findNameInLines returns the first line that reads like a Latin personal
// name and is not part of the issuer's boilerplate.
func findNameInLines(lines []string) string {
	for _, line := range lines {
		if !isNameLine(line) {
			continue
		}
		if name := cleanName(line); name != "" {
			return name
		}
	}
	return ""
}

func isNameLine(line string) bool {
	bare := relationMarkerPattern.ReplaceAllString(line, " ")
	if !latinLinePattern.MatchString(bare) {
		return false
	}
	if len(strings.Fields(line)) < 2 {
		return false
	}
	lower := strings.ToLower(line)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

func findGuardianName(text string) string {
	return strings.TrimSpace(firstGroup(guardianPattern, text))
}

func findDateOfBirth(text string) string {
	return strings.ReplaceAll(firstGroup(birthDatePattern, text), "-", "/")
}

func findGender(text string) string {
	return capitalize(firstGroup(genderPattern, text))
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// findAddress captures the block after the address label up to the first
// line that starts the district, state, pincode, VID or signature section.
func findAddress(text string) string {
	loc := addressLabelPattern.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	block := text[loc[1]:]
	if end := addressTerminatorPattern.FindStringIndex(block); end != nil {
		block = block[:end[0]]
	}

	address := strings.TrimSpace(block)
	address = relationFragmentPattern.ReplaceAllString(address, "")
	address = idNumberPattern.ReplaceAllString(address, "")
	address = postOfficePattern.ReplaceAllString(address, "")
	address = addressTailPattern.ReplaceAllString(address, "")
	address = strings.ReplaceAll(address, "\n", " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(address, " "))
}

func findDistrict(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(firstGroup(districtPattern, text)), ",", "")
}

func findState(text string) string {
	return strings.TrimSuffix(strings.TrimSpace(firstGroup(statePattern, text)), ",")
}

func findPincode(text string) string {
	return firstGroup(pincodePattern, text)
}

func findPhone(text string) string {
	return firstGroup(phonePattern, text)
}
