package cognito

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "US"

// NormalizePhone returns value in E.164 form, or "" when it is not a
// possible phone number.
func NormalizePhone(value string) string {
	return NormalizePhoneRegion(value, DefaultRegion)
}

// NormalizePhoneRegion reads national numbers as belonging to region.
func NormalizePhoneRegion(value, region string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsFunc(value, func(r rune) bool {
		return unicode.IsLetter(r) || r == '@'
	}) {
		return ""
	}
	num, err := phonenumbers.Parse(value, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
