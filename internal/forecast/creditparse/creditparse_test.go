package creditparse

import "testing"

func TestParse_NotCreditExhaustion(t *testing.T) {
	if Parse("rate limited, try again") != nil {
		t.Error("expected nil for unrelated message")
	}
}

func TestParse_ExtractsResetTime(t *testing.T) {
	result := Parse("out of extra usage · resets 6pm (America/New_York)")
	if result == nil {
		t.Fatal("expected a Result")
	}
	if result.ResetTime == nil {
		t.Fatal("expected a parsed reset time")
	}
	if result.ResetTime.Hour() != 18 {
		t.Errorf("expected hour 18, got %d", result.ResetTime.Hour())
	}
}

func TestParse_AMConversion(t *testing.T) {
	result := Parse("out of usage · resets 12am (UTC)")
	if result == nil || result.ResetTime == nil {
		t.Fatal("expected a parsed reset time")
	}
	if result.ResetTime.Hour() != 0 {
		t.Errorf("expected midnight, got hour %d", result.ResetTime.Hour())
	}
}

func TestParse_UnknownTimezoneStillDetectsExhaustion(t *testing.T) {
	result := Parse("out of extra usage · resets 6pm (Nowhere/Imaginary)")
	if result == nil {
		t.Fatal("expected exhaustion to be detected even without a parseable timezone")
	}
	if result.ResetTime != nil {
		t.Error("expected nil reset time for an unrecognized timezone")
	}
}

func TestParse_NoResetClause(t *testing.T) {
	result := Parse("you are out of usage for this period")
	if result == nil {
		t.Fatal("expected exhaustion to be detected")
	}
	if result.ResetTime != nil {
		t.Error("expected nil reset time when no reset clause is present")
	}
}
