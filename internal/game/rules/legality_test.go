package rules

import "testing"

func TestCheckAllReturnsFirstFailure(t *testing.T) {
	calls := 0
	result := CheckAll(
		func() LegalityResult { calls++; return Legal() },
		func() LegalityResult { calls++; return Illegal("not your turn", "player", 1) },
		func() LegalityResult { calls++; return Illegal("unreachable") },
	)

	if result.Legal {
		t.Fatalf("expected illegal result")
	}
	if result.Reason != "not your turn" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
	if result.Details["player"] != "1" {
		t.Fatalf("expected player detail, got %v", result.Details)
	}
	if calls != 2 {
		t.Fatalf("expected checks to stop at first failure, ran %d", calls)
	}
}

func TestCheckAllPasses(t *testing.T) {
	result := CheckAll(nil, func() LegalityResult { return Legal() })
	if !result.Legal {
		t.Fatalf("expected legal result, got %s", result)
	}
}

func TestLegalityResultString(t *testing.T) {
	result := Illegal("slot occupied", "terrain", 2, "player", 0, "dangling")
	if got := result.String(); got != "slot occupied (player=0, terrain=2)" {
		t.Fatalf("unexpected string %q", got)
	}
	if Legal().String() != "legal" {
		t.Fatalf("unexpected legal string")
	}
	if Illegal("plain").String() != "plain" {
		t.Fatalf("unexpected plain string")
	}
}
