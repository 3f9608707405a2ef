package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPIICardNumber(t *testing.T) {
	detections := DetectPII("my card 4111 1111 1111 1111 was declined")

	require.Len(t, detections, 1)
	assert.Equal(t, PIITypeCardNumber, detections[0].Type)
	assert.Equal(t, "4111 1111 1111 1111", detections[0].Value)
}

func TestDetectPIIRejectsNonLuhnDigitRun(t *testing.T) {
	detections := DetectPII("loan reference 1234 5678 9012 3456 pending")

	for _, d := range detections {
		assert.NotEqual(t, PIITypeCardNumber, d.Type)
	}
}

func TestDetectPIIContextualTypes(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		typ   PIIType
		value string
	}{
		{"account number", "my account number 123456789012 is blocked", PIITypeAccountNumber, "123456789012"},
		{"cvv", "the cvv is 123", PIITypeCVV, "123"},
		{"otp", "I received otp 482915", PIITypeOTP, "482915"},
		{"pan", "my PAN is ABCDE1234F", PIITypePAN, "ABCDE1234F"},
		{"aadhaar", "aadhaar 2345 6789 0123 linked", PIITypeAadhaar, "2345 6789 0123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := DetectPII(tt.text)
			require.NotEmpty(t, detections)

			found := false
			for _, d := range detections {
				if d.Type == tt.typ {
					assert.Equal(t, tt.value, d.Value)
					found = true
				}
			}
			assert.True(t, found, "expected %s detection", tt.typ)
		})
	}
}

func TestDetectPIICleanText(t *testing.T) {
	assert.Empty(t, DetectPII("how is EMI calculated for a 5 lakh loan over 36 months"))
	assert.False(t, ContainsPII("what are the current interest rates"))
}

func TestMaskPIIKeepsLastFour(t *testing.T) {
	masked := MaskPII("card 4111 1111 1111 1111 and account number 123456789012")

	assert.Equal(t, "card XXXX XXXX XXXX 1111 and account number XXXXXXXX9012", masked)
}

func TestMaskPIIFullMaskForShortSecrets(t *testing.T) {
	masked := MaskPII("the cvv is 123 and otp 482915")

	assert.NotContains(t, masked, "123 and")
	assert.NotContains(t, masked, "482915")
	assert.Contains(t, masked, "XXX")
}

func TestMaskPIIPassthrough(t *testing.T) {
	text := "can I prepay my home loan after 12 months"
	assert.Equal(t, text, MaskPII(text))
}

func TestSummarizePII(t *testing.T) {
	detections := DetectPII("card 4111 1111 1111 1111, cvv 123")

	summary := SummarizePII(detections)
	assert.Contains(t, summary, "card_number")
	assert.Contains(t, summary, "cvv")
	assert.Empty(t, SummarizePII(nil))
}
