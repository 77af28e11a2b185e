package document

import (
	"errors"
	"regexp"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-idcard-reader/internal/parser"
)

// NameMatchThreshold is the minimum Jaro-Winkler similarity for a claimed
// name to match the extracted one.
const NameMatchThreshold = 0.85

// ErrNoClaims is returned when a verification request carries no claim.
var ErrNoClaims = errors.New("at least one of name, id_number or date_of_birth is required")

// Claims are the values a caller expects to find on the document.
type Claims struct {
	Name        string `json:"name,omitempty"`
	IDNumber    string `json:"id_number,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// IsEmpty reports whether no claim was supplied.
func (c Claims) IsEmpty() bool {
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.IDNumber) == "" &&
		strings.TrimSpace(c.DateOfBirth) == ""
}

// ClaimCheck is the comparison of one claimed field.
type ClaimCheck struct {
	Field     string  `json:"field"`
	Claimed   string  `json:"claimed"`
	Extracted string  `json:"extracted"`
	Score     float64 `json:"score"`
	Match     bool    `json:"match"`
}

var (
	nonDigitPattern  = regexp.MustCompile(`\D`)
	dateSepPattern   = regexp.MustCompile(`[-/.\s]+`)
	jaroWinklerScore = metrics.NewJaroWinkler()
)

// VerifyRecord compares claims with an extracted record. Names match by
// similarity against either the Latin or the regional script name; the
// id number and date of birth must match exactly after normalization.
func VerifyRecord(record parser.Record, claims Claims) (*VerifyResult, error) {
	if claims.IsEmpty() {
		return nil, ErrNoClaims
	}

	result := &VerifyResult{Record: record, Checks: []ClaimCheck{}}

	if claimed := strings.TrimSpace(claims.Name); claimed != "" {
		extracted, score := bestNameMatch(claimed, record)
		result.Checks = append(result.Checks, ClaimCheck{
			Field:     "name",
			Claimed:   claimed,
			Extracted: extracted,
			Score:     score,
			Match:     score >= NameMatchThreshold,
		})
	}

	if claimed := strings.TrimSpace(claims.IDNumber); claimed != "" {
		result.Checks = append(result.Checks, exactCheck("id_number", claimed, record.IDNumber, normalizeDigits))
	}

	if claimed := strings.TrimSpace(claims.DateOfBirth); claimed != "" {
		result.Checks = append(result.Checks, exactCheck("date_of_birth", claimed, record.DateOfBirth, normalizeDate))
	}

	result.Verified = true
	for _, check := range result.Checks {
		if !check.Match {
			result.Verified = false
			break
		}
	}
	return result, nil
}

func bestNameMatch(claimed string, record parser.Record) (string, float64) {
	var best string
	var bestScore float64
	for _, candidate := range []string{record.Name, record.NameNativeScript} {
		if candidate == "" {
			continue
		}
		score := nameSimilarity(claimed, candidate)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best, bestScore
}

func nameSimilarity(a, b string) float64 {
	return strutil.Similarity(normalizeName(a), normalizeName(b), jaroWinklerScore)
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(s))), " ")
}

func exactCheck(field, claimed, extracted string, normalize func(string) string) ClaimCheck {
	check := ClaimCheck{Field: field, Claimed: claimed, Extracted: extracted}
	if extracted != "" && normalize(claimed) == normalize(extracted) {
		check.Score = 1
		check.Match = true
	}
	return check
}

func normalizeDigits(s string) string {
	return nonDigitPattern.ReplaceAllString(s, "")
}

// normalizeDate maps 1-2-1990, 01/02/1990 and 01.02.1990 to the same key.
func normalizeDate(s string) string {
	parts := dateSepPattern.Split(strings.TrimSpace(s), -1)
	for i, p := range parts {
		if trimmed := strings.TrimLeft(p, "0"); trimmed != "" {
			parts[i] = trimmed
		}
	}
	return strings.Join(parts, "/")
}
