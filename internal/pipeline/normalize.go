package pipeline

import (
	"net/mail"
	"strconv"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Normalize validates and cleans a single raw record. It returns either a
// candidate lead ready for dedupe resolution, or the rejection reason for the
// first rule the record failed. Rules run in a fixed order: identity anchor,
// contact channel, independent email syntax, price parse.
//
// Pure function, no side effects, safe to call from concurrent batches.
// A zero RejectionReason means the record was accepted.
func Normalize(raw model.RawRecord) (*model.CandidateLead, model.RejectionReason) {
	name := strings.TrimSpace(raw.Name)
	address := strings.TrimSpace(raw.PropertyAddress)
	source := strings.TrimSpace(raw.Source)

	if name == "" && address == "" {
		return nil, model.RejectMissingIdentity
	}

	email, emailValid := normalizeEmail(raw.Email)
	phone := normalizePhone(raw.Phone)

	hasEmail := strings.TrimSpace(raw.Email) != ""
	hasPhone := phoneDigitCount(phone) >= minPhoneDigits

	if !(hasEmail && emailValid) && !hasPhone {
		return nil, model.RejectMissingContact
	}

	// Email syntax is checked independently of phone: downstream messaging
	// keys off email, so a bad address rejects the record even when a usable
	// phone number is present.
	if hasEmail && !emailValid {
		return nil, model.RejectInvalidEmail
	}

	candidate := &model.CandidateLead{
		Name:            name,
		PropertyAddress: address,
		Source:          source,
	}
	if hasEmail {
		candidate.Email = email
	}
	if hasPhone {
		candidate.Phone = phone
	}

	if strings.TrimSpace(raw.Price) != "" {
		price, ok := parsePrice(raw.Price)
		if !ok {
			return nil, model.RejectInvalidPrice
		}
		candidate.PriceNumeric = &price
	}

	return candidate, ""
}

// minPhoneDigits is the fewest digits a phone number can carry and still
// count as a contact channel.
const minPhoneDigits = 7

// normalizeEmail trims and lowercases an email address and reports whether it
// parses as a bare RFC 5322 address.
func normalizeEmail(s string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(s))
	if email == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return email, false
	}
	return email, true
}

// normalizePhone strips everything but digits, preserving a single leading +
// for international numbers.
func normalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "+" {
		return ""
	}
	return digits
}

func phoneDigitCount(phone string) int {
	return len(strings.TrimPrefix(phone, "+"))
}

// parsePrice converts a free-text price ("$450,000", "1 200 000") into a
// non-negative number. Currency symbols and separators are stripped before
// parsing.
func parsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		case r == ',', r == ' ', r == '$', r == '€', r == '£', r == '_':
			// separator or currency symbol, drop
		default:
			return 0, false
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}
