package telephony

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := map[string]string{
		"(555) 123-4567":   "+15551234567",
		"555.123.4567":     "+15551234567",
		"+1 555 123 4567":  "+15551234567",
		"15551234567":      "+15551234567",
		"+44 20 7946 0958": "+442079460958",
		"":                 "",
		"anonymous":        "",
	}
	for in, want := range cases {
		if got := NormalizeE164(in); got != want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", in, got, want)
		}
	}
}
