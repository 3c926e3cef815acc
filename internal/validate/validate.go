// Package validate holds the pure input validators shared by the bot
// conversation flows and the web submit endpoints. Every function takes raw
// user text and returns the normalized value or a human-readable error that
// can be sent back to the customer as-is.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	minNameLen    = 2
	maxNameLen    = 50
	maxCompanyLen = 100
	minQuantity   = 1
	maxQuantity   = 100000
	minMessageLen = 5
	maxMessageLen = 1000
)

var (
	nameRe    = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	companyRe = regexp.MustCompile(`^[a-zA-Z0-9\s\-'&.,()]+$`)
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe   = regexp.MustCompile(`^[0-9]{6,15}$`)
	// Formatting characters stripped from phone numbers before the digit check.
	phoneSepRe = regexp.MustCompile(`[\s\-()+.]`)
)

// Accepted delivery date layouts, tried in order. The first layout that
// parses wins, so day-first forms take precedence over the US month-first
// form for ambiguous input like 03/04/2025.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02",
	"01/02/2006",
}

// Strict layouts for consultation datetime preferences.
var datetimeLayouts = []string{
	"02/01/2006 15:04",
	"02-01-2006 15:04",
	"2006-01-02 15:04",
	"02/01/2006 3:04 PM",
}

// Name validates a customer name and normalizes it to title case.
func Name(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	// Length limits are in characters, not bytes.
	if utf8.RuneCountInString(name) < minNameLen {
		return "", fmt.Errorf("Name must be at least %d characters long", minNameLen)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", fmt.Errorf("Name cannot exceed %d characters", maxNameLen)
	}
	if !nameRe.MatchString(name) {
		return "", errors.New("Name can only contain letters, spaces, hyphens, and apostrophes")
	}
	return titleCase(name), nil
}

// CompanyName validates an optional company name. Empty input is valid and
// normalizes to the empty string.
func CompanyName(raw string) (string, error) {
	company := strings.TrimSpace(raw)
	if company == "" {
		return "", nil
	}
	if utf8.RuneCountInString(company) > maxCompanyLen {
		return "", fmt.Errorf("Company name cannot exceed %d characters", maxCompanyLen)
	}
	if !companyRe.MatchString(company) {
		return "", errors.New("Company name contains invalid characters")
	}
	return company, nil
}

// Quantity parses an order quantity in [1, 100000].
func Quantity(raw string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.New("Quantity must be a whole number")
	}
	if qty < minQuantity {
		return 0, errors.New("Quantity must be a positive number")
	}
	if qty > maxQuantity {
		return 0, fmt.Errorf("Quantity cannot exceed %d", maxQuantity)
	}
	return qty, nil
}

// DeliveryDate parses a delivery date in any of the accepted layouts and
// requires it to fall strictly after tomorrow's start of day and within one
// year. The result is always re-serialized as DD/MM/YYYY.
func DeliveryDate(raw string) (string, error) {
	dateStr := strings.TrimSpace(raw)

	var parsed time.Time
	ok := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return "", errors.New("Please use a date format like 25/12/2026")
	}

	now := time.Now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if parsed.Before(tomorrow) {
		return "", errors.New("Delivery date must be at least tomorrow")
	}
	if parsed.After(now.AddDate(0, 0, 365)) {
		return "", errors.New("Delivery date cannot be more than one year away")
	}

	return parsed.Format("02/01/2006"), nil
}

// ContactInfo validates a phone number or e-mail address. E-mails are
// returned lower-cased; phone numbers are returned exactly as entered once
// the stripped digits pass the 6-15 digit check.
func ContactInfo(raw string) (string, error) {
	contact := strings.TrimSpace(raw)
	if contact == "" {
		return "", errors.New("Contact information is required")
	}

	if emailRe.MatchString(contact) {
		return strings.ToLower(contact), nil
	}

	digits := phoneSepRe.ReplaceAllString(contact, "")
	if phoneRe.MatchString(digits) {
		return contact, nil
	}

	return "", errors.New("Please provide a valid phone number or e-mail address")
}

// DatetimePreference validates a preferred consultation time. Strictly
// formatted datetimes must be in the future and get tagged when they fall on
// a weekend or outside business hours. Anything else of reasonable length is
// accepted as natural language to be confirmed manually.
func DatetimePreference(raw string) (string, error) {
	pref := strings.TrimSpace(raw)
	if pref == "" {
		return "", errors.New("Please tell me your preferred date and time")
	}

	for _, layout := range datetimeLayouts {
		parsed, err := time.ParseInLocation(layout, pref, time.Local)
		if err != nil {
			continue
		}
		if !parsed.After(time.Now()) {
			return "", errors.New("The preferred time must be in the future")
		}
		switch {
		case parsed.Weekday() == time.Saturday || parsed.Weekday() == time.Sunday:
			return pref + " (Weekend - will confirm availability)", nil
		case parsed.Hour() < 8 || parsed.Hour() > 18:
			return pref + " (Outside business hours - will confirm availability)", nil
		default:
			return pref, nil
		}
	}

	// Natural language like "Next Monday at 2 PM" is fine, it just gets
	// confirmed by a human.
	if utf8.RuneCountInString(pref) >= minMessageLen {
		return pref + " (Will confirm specific time)", nil
	}

	return "", errors.New("Please provide a valid date and time preference")
}

// MessageText validates a direct-message body of 5-1000 characters.
func MessageText(raw string) (string, error) {
	msg := strings.TrimSpace(raw)
	if utf8.RuneCountInString(msg) < minMessageLen {
		return "", fmt.Errorf("Message is too short (minimum %d characters)", minMessageLen)
	}
	if utf8.RuneCountInString(msg) > maxMessageLen {
		return "", fmt.Errorf("Message is too long (maximum %d characters)", maxMessageLen)
	}
	return msg, nil
}

// ServiceSelection matches user input against the catalog service names.
// An exact case-insensitive match wins; otherwise a substring match is
// accepted only when it is unambiguous.
func ServiceSelection(raw string, services []string) (string, error) {
	input := strings.ToLower(strings.TrimSpace(raw))
	if input == "" {
		return "", errors.New("Please choose one of the listed services")
	}

	for _, svc := range services {
		if strings.ToLower(svc) == input {
			return svc, nil
		}
	}

	var matches []string
	for _, svc := range services {
		if strings.Contains(strings.ToLower(svc), input) {
			matches = append(matches, svc)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	return "", errors.New("I couldn't find that service. Please choose from the list")
}

// titleCase capitalizes the letter after every word boundary (start, space,
// hyphen, apostrophe) and lower-cases everything else, so "john o'neil-doe"
// becomes "John O'Neil-Doe". Applying it twice is a no-op.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	boundary := true
	for _, r := range s {
		switch {
		case boundary && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			boundary = false
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
			boundary = true
		}
	}
	return b.String()
}
