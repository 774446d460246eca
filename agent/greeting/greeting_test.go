package greeting

import "testing"

func TestMatch(t *testing.T) {
	t.Parallel()

	matches := []string{
		"Hello there",
		"HI",
		"good morning team",
		"hey, what's up",
		"  howdy  ",
		"yo",
		"Good evening",
		"goodmorning",
	}
	for _, in := range matches {
		if !Match(in) {
			t.Fatalf("Match(%q) = false, want true", in)
		}
	}

	misses := []string{
		"",
		"   ",
		"hidden fee",
		"highways are closed",
		"yolo orders",
		"goodbye",
		"delete order O-1",
	}
	for _, in := range misses {
		if Match(in) {
			t.Fatalf("Match(%q) = true, want false", in)
		}
	}
}
