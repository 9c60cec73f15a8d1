package services

import (
	"errors"
	"testing"
)

func TestFormatClockMinutes(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{60, "1"},
		{90, "1.5"},
		{125, "2.08"},
		{300, "5"},
		{330, "5.5"},
		{45, "0.75"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := FormatClockMinutes(tc.seconds); got != tc.want {
			t.Errorf("FormatClockMinutes(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseClockMinutes(t *testing.T) {
	cases := []struct {
		value string
		want  int
	}{
		{"1", 60},
		{"1.5", 90},
		{"2.08", 125},
		{"5", 300},
		{"5.5", 330},
		{"0.75", 45},
	}
	for _, tc := range cases {
		got, err := ParseClockMinutes(tc.value)
		if err != nil {
			t.Errorf("ParseClockMinutes(%q) returned error: %v", tc.value, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClockMinutes(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestParseClockMinutesRejectsBadInput(t *testing.T) {
	for _, value := range []string{"", "abc", "-1", "1.5.5"} {
		if _, err := ParseClockMinutes(value); !errors.Is(err, ErrInvalidClockTime) {
			t.Errorf("ParseClockMinutes(%q) error = %v, want ErrInvalidClockTime", value, err)
		}
	}
}

// Every stored value must survive the render/parse cycle unchanged, the
// two-decimal renderings included.
func TestClockMinutesRoundTrip(t *testing.T) {
	for _, seconds := range []int{30, 45, 60, 90, 125, 180, 300, 330, 5400} {
		rendered := FormatClockMinutes(seconds)
		back, err := ParseClockMinutes(rendered)
		if err != nil {
			t.Fatalf("ParseClockMinutes(%q) returned error: %v", rendered, err)
		}
		if back != seconds {
			t.Errorf("%d seconds rendered as %q parsed back to %d", seconds, rendered, back)
		}
	}
}
