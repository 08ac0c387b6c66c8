package crawl

import (
	"net/http"
	"testing"
	"time"
)

func TestParsePubDateLayouts(t *testing.T) {
	t.Parallel()

	expected := time.Date(2025, time.March, 1, 17, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
	}{
		{"rfc1123z", "Sat, 01 Mar 2025 12:30:00 -0500"},
		{"rfc1123", "Sat, 01 Mar 2025 17:30:00 GMT"},
		{"rfc3339", "2025-03-01T12:30:00-05:00"},
		{"single digit day", "Sat, 1 Mar 2025 12:30:00 -0500"},
		{"space separated", "2025-03-01 12:30:00 -0500"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := parsePubDate(tc.raw, time.UTC)
			requireNoError(t, err)

			if !parsed.Equal(expected) {
				t.Errorf("expected %v, got %v", expected, parsed)
			}
			assertEqual(t, time.UTC.String(), parsed.Location().String())
		})
	}
}

func TestParsePubDateBareUsesFallbackZone(t *testing.T) {
	t.Parallel()

	est := time.FixedZone("EST", -5*60*60)

	parsed, err := parsePubDate("Sat, 1 Mar 2025 12:30:00", est)
	requireNoError(t, err)

	expected := time.Date(2025, time.March, 1, 17, 30, 0, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, parsed)
	}
}

func TestParsePubDateRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not a date", "32/13/2025"} {
		if _, err := parsePubDate(raw, time.UTC); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestHeaderLocation(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	assertEqual(t, time.UTC, headerLocation(header))

	header.Set("Date", "Sat, 01 Mar 2025 12:00:00 GMT")
	assertEqual(t, time.UTC, headerLocation(header))

	header.Set("Date", "garbage")
	assertEqual(t, time.UTC, headerLocation(header))
}
