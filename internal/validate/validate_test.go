package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple name", input: "john doe", want: "John Doe"},
		{name: "trims whitespace", input: "  jane smith  ", want: "Jane Smith"},
		{name: "apostrophe", input: "patrick o'neil", want: "Patrick O'Neil"},
		{name: "hyphenated", input: "mary-jane watson", want: "Mary-Jane Watson"},
		{name: "already normalized", input: "John Doe", want: "John Doe"},
		{name: "too short", input: "a", wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 51), wantErr: true},
		{name: "digits rejected", input: "john123", wantErr: true},
		{name: "symbols rejected", input: "john@doe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	first, err := Name("jean-luc o'brien")
	require.NoError(t, err)

	second, err := Name(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompanyName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty is valid", input: "", want: ""},
		{name: "whitespace only is valid", input: "   ", want: ""},
		{name: "plain company", input: "Acme Printing Ltd.", want: "Acme Printing Ltd."},
		{name: "business symbols", input: "Smith & Sons (UK)", want: "Smith & Sons (UK)"},
		{name: "too long", input: strings.Repeat("x", 101), wantErr: true},
		{name: "invalid characters", input: "Acme <script>", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompanyName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "valid", input: "50", want: 50},
		{name: "trims whitespace", input: " 100 ", want: 100},
		{name: "lower bound", input: "1", want: 1},
		{name: "upper bound", input: "100000", want: 100000},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "too large", input: "100001", wantErr: true},
		{name: "decimal", input: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeliveryDate(t *testing.T) {
	in30 := time.Now().AddDate(0, 0, 30)
	want := in30.Format("02/01/2006")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "slash format", input: in30.Format("02/01/2006"), want: want},
		{name: "dash format", input: in30.Format("02-01-2006"), want: want},
		{name: "dot format", input: in30.Format("02.01.2006"), want: want},
		{name: "iso format", input: in30.Format("2006-01-02"), want: want},
		{name: "yesterday", input: time.Now().AddDate(0, 0, -1).Format("02/01/2006"), wantErr: true},
		{name: "today", input: time.Now().Format("02/01/2006"), wantErr: true},
		{name: "beyond one year", input: time.Now().AddDate(0, 0, 400).Format("02/01/2006"), wantErr: true},
		{name: "garbage", input: "not a date", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeliveryDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeliveryDateAlwaysDayFirst(t *testing.T) {
	// An ambiguous date parses as day-first regardless of which format the
	// user intended; the normalized form echoes that interpretation back.
	target := time.Now().AddDate(0, 0, 45)
	if target.Day() > 12 {
		t.Skip("ambiguity only arises when the day could be a month")
	}

	got, err := DeliveryDate(target.Format("02/01/2006"))
	require.NoError(t, err)
	assert.Equal(t, target.Format("02/01/2006"), got)
}

func TestContactInfo(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "email lower-cased", input: "Test@Example.COM", want: "test@example.com"},
		{name: "email unchanged when lower", input: "test@example.com", want: "test@example.com"},
		{name: "plain phone", input: "123456789", want: "123456789"},
		{name: "formatted phone kept verbatim", input: "+1 (555) 123-4567", want: "+1 (555) 123-4567"},
		{name: "minimum digits", input: "123456", want: "123456"},
		{name: "maximum digits", input: "123456789012345", want: "123456789012345"},
		{name: "too few digits", input: "12345", wantErr: true},
		{name: "too many digits", input: "1234567890123456", wantErr: true},
		{name: "letters in phone", input: "12345abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "not email not phone", input: "hello there", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContactInfo(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContactInfoIdempotent(t *testing.T) {
	first, err := ContactInfo("Someone@Example.com")
	require.NoError(t, err)

	second, err := ContactInfo(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDatetimePreference(t *testing.T) {
	// A weekday inside business hours, far enough out to stay in the future.
	future := time.Now().AddDate(0, 0, 14)
	for future.Weekday() == time.Saturday || future.Weekday() == time.Sunday {
		future = future.AddDate(0, 0, 1)
	}
	weekday := time.Date(future.Year(), future.Month(), future.Day(), 14, 30, 0, 0, time.Local)

	weekend := weekday
	for weekend.Weekday() != time.Saturday {
		weekend = weekend.AddDate(0, 0, 1)
	}

	t.Run("business hours accepted unchanged", func(t *testing.T) {
		input := weekday.Format("02/01/2006 15:04")
		got, err := DatetimePreference(input)
		require.NoError(t, err)
		assert.Equal(t, input, got)
	})

	t.Run("weekend tagged", func(t *testing.T) {
		input := weekend.Format("02/01/2006 15:04")
		got, err := DatetimePreference(input)
		require.NoError(t, err)
		assert.Equal(t, input+" (Weekend - will confirm availability)", got)
	})

	t.Run("off hours tagged", func(t *testing.T) {
		late := time.Date(weekday.Year(), weekday.Month(), weekday.Day(), 22, 0, 0, 0, time.Local)
		input := late.Format("02/01/2006 15:04")
		got, err := DatetimePreference(input)
		require.NoError(t, err)
		assert.Equal(t, input+" (Outside business hours - will confirm availability)", got)
	})

	t.Run("past datetime rejected", func(t *testing.T) {
		input := time.Now().AddDate(0, 0, -1).Format("02/01/2006 15:04")
		_, err := DatetimePreference(input)
		assert.Error(t, err)
	})

	t.Run("natural language accepted with tag", func(t *testing.T) {
		got, err := DatetimePreference("Next Monday at 2 PM")
		require.NoError(t, err)
		assert.Equal(t, "Next Monday at 2 PM (Will confirm specific time)", got)
	})

	t.Run("too short rejected", func(t *testing.T) {
		_, err := DatetimePreference("soon")
		assert.Error(t, err)
	})
}

func TestMessageText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "I need 500 flyers for an event.", want: "I need 500 flyers for an event."},
		{name: "trimmed", input: "  hello there  ", want: "hello there"},
		{name: "minimum length", input: "12345", want: "12345"},
		{name: "maximum length", input: strings.Repeat("a", 1000), want: strings.Repeat("a", 1000)},
		{name: "too short", input: "1234", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 1001), wantErr: true},
		// Bounds count characters, not bytes.
		{name: "multi-byte within limit", input: strings.Repeat("é", 600), want: strings.Repeat("é", 600)},
		{name: "multi-byte at maximum", input: strings.Repeat("日", 1000), want: strings.Repeat("日", 1000)},
		{name: "multi-byte too short", input: "日本語a", wantErr: true},
		{name: "multi-byte too long", input: strings.Repeat("é", 1001), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MessageText(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceSelection(t *testing.T) {
	catalog := []string{"Business Cards", "Flyers", "Banners", "Paper Bags"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "exact match", input: "Flyers", want: "Flyers"},
		{name: "case insensitive", input: "business cards", want: "Business Cards"},
		{name: "unique substring", input: "banner", want: "Banners"},
		{name: "ambiguous substring", input: "ba", wantErr: true},
		{name: "no match", input: "mugs", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ServiceSelection(tt.input, catalog)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
