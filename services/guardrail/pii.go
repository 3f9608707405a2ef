package guardrail

import (
	"regexp"
	"strings"
)

// PIIType represents different kinds of customer data that can appear in a
// query and must never reach the audit trail or an external provider in the
// clear.
type PIIType string

const (
	PIITypeCardNumber    PIIType = "card_number"
	PIITypeAccountNumber PIIType = "account_number"
	PIITypePAN           PIIType = "pan"
	PIITypeAadhaar       PIIType = "aadhaar"
	PIITypeCVV           PIIType = "cvv"
	PIITypeOTP           PIIType = "otp"
)

// PIIDetection represents a detected PII instance
type PIIDetection struct {
	Type     PIIType
	Value    string
	StartPos int
	EndPos   int
}

var (
	// Card numbers: 13 to 19 digits, optionally grouped by spaces or
	// dashes. Candidates are confirmed with a Luhn check to keep loan
	// reference numbers and phone numbers out.
	cardNumberPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

	// Aadhaar: 12 digits in groups of four.
	aadhaarPattern = regexp.MustCompile(`\b\d{4}[ -]\d{4}[ -]\d{4}\b`)

	// PAN: five letters, four digits, one letter.
	panPattern = regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`)

	// Account numbers only count when the surrounding text says so;
	// a bare digit run is too ambiguous.
	accountNumberPattern = regexp.MustCompile(`(?i)(?:account|acct|a/c)[^\d]{0,20}(\d{9,18})\b`)

	// CVV and OTP are short digit runs, so they also require context.
	cvvPattern = regexp.MustCompile(`(?i)\bcvv[^\d]{0,10}(\d{3,4})\b`)
	otpPattern = regexp.MustCompile(`(?i)\botp[^\d]{0,10}(\d{4,8})\b`)
)

// DetectPII finds all customer data instances in the given text.
func DetectPII(text string) []PIIDetection {
	var detections []PIIDetection

	for _, loc := range cardNumberPattern.FindAllStringIndex(text, -1) {
		candidate := text[loc[0]:loc[1]]
		if luhnValid(candidate) {
			detections = append(detections, PIIDetection{
				Type:     PIITypeCardNumber,
				Value:    candidate,
				StartPos: loc[0],
				EndPos:   loc[1],
			})
		}
	}

	detections = appendMatches(detections, text, aadhaarPattern, PIITypeAadhaar, detections)
	detections = appendMatches(detections, text, panPattern, PIITypePAN, nil)
	detections = appendGroupMatches(detections, text, accountNumberPattern, PIITypeAccountNumber)
	detections = appendGroupMatches(detections, text, cvvPattern, PIITypeCVV)
	detections = appendGroupMatches(detections, text, otpPattern, PIITypeOTP)

	return detections
}

// MaskPII replaces detected customer data with masked placeholders, keeping
// the last four characters of card and account numbers for reconciliation.
func MaskPII(text string) string {
	detections := DetectPII(text)
	if len(detections) == 0 {
		return text
	}

	masked := []byte(text)
	for _, d := range detections {
		keep := 0
		if d.Type == PIITypeCardNumber || d.Type == PIITypeAccountNumber {
			keep = 4
		}
		maskRange(masked, d.StartPos, d.EndPos, keep)
	}
	return string(masked)
}

// ContainsPII reports whether the text carries any detectable customer data.
func ContainsPII(text string) bool {
	return len(DetectPII(text)) > 0
}

// appendMatches records whole-pattern matches, skipping spans already claimed
// by an earlier detector.
func appendMatches(detections []PIIDetection, text string, re *regexp.Regexp, t PIIType, claimed []PIIDetection) []PIIDetection {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if overlaps(loc[0], loc[1], claimed) {
			continue
		}
		detections = append(detections, PIIDetection{
			Type:     t,
			Value:    text[loc[0]:loc[1]],
			StartPos: loc[0],
			EndPos:   loc[1],
		})
	}
	return detections
}

// appendGroupMatches records the first capture group of each match.
func appendGroupMatches(detections []PIIDetection, text string, re *regexp.Regexp, t PIIType) []PIIDetection {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		if start < 0 {
			continue
		}
		detections = append(detections, PIIDetection{
			Type:     t,
			Value:    text[start:end],
			StartPos: start,
			EndPos:   end,
		})
	}
	return detections
}

func overlaps(start, end int, claimed []PIIDetection) bool {
	for _, d := range claimed {
		if start < d.EndPos && end > d.StartPos {
			return true
		}
	}
	return false
}

// maskRange overwrites digits in text[start:end] with 'X', preserving the
// last keep digits and any separators.
func maskRange(text []byte, start, end, keep int) {
	digits := 0
	for i := start; i < end; i++ {
		if text[i] >= '0' && text[i] <= '9' {
			digits++
		}
	}
	seen := 0
	for i := start; i < end; i++ {
		c := text[i]
		if c < '0' || c > '9' {
			if c >= 'A' && c <= 'Z' {
				text[i] = 'X'
			}
			continue
		}
		seen++
		if seen <= digits-keep {
			text[i] = 'X'
		}
	}
}

// luhnValid runs the Luhn checksum over the digits of s.
func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// SummarizePII lists the distinct PII types found, for log fields.
func SummarizePII(detections []PIIDetection) string {
	if len(detections) == 0 {
		return ""
	}
	seen := make(map[PIIType]bool)
	var types []string
	for _, d := range detections {
		if !seen[d.Type] {
			seen[d.Type] = true
			types = append(types, string(d.Type))
		}
	}
	return strings.Join(types, ",")
}
