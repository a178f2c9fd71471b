package sourcehealth

import (
	"testing"
	"time"
)

func TestIsBlocked_StatusCodes(t *testing.T) {
	for _, code := range []int{403, 429, 503} {
		if !IsBlocked(code, "") {
			t.Errorf("status %d expected blocked", code)
		}
	}
	if IsBlocked(200, "") {
		t.Error("status 200 with empty body should not be blocked")
	}
}

func TestIsBlocked_BodyPatterns(t *testing.T) {
	cases := []string{
		"Access Denied", "please complete the CAPTCHA", "Cloudflare Ray ID",
		"unusual traffic from your network", "Robot Check",
	}
	for _, body := range cases {
		if !IsBlocked(200, body) {
			t.Errorf("body %q expected blocked", body)
		}
	}
	if IsBlocked(200, "here are today's fixtures") {
		t.Error("ordinary body should not be blocked")
	}
}

func TestTracker_FiveFailuresMarksDownForAtLeastEightMinutes(t *testing.T) {
	tr := NewTracker()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	tr.now = func() time.Time { return cur }

	var lastAlert *Alert
	for i := 0; i < 5; i++ {
		lastAlert = tr.RecordFailure("flashscore", "timeout")
	}
	if lastAlert == nil || lastAlert.Severity != "critical" {
		t.Fatalf("expected a critical alert on the 5th consecutive failure, got %v", lastAlert)
	}
	if !tr.IsSourceDown("flashscore") {
		t.Fatal("expected source to be down immediately after 5 consecutive failures")
	}

	cur = start.Add(8 * time.Minute)
	if !tr.IsSourceDown("flashscore") {
		t.Fatal("expected source to still be down 8 minutes later (cooldown is at least 8m)")
	}
}

func TestTracker_SuccessAfterDownReturnsToHealthy(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.RecordFailure("oddsportal", "503")
	}
	if !tr.IsSourceDown("oddsportal") {
		t.Fatal("expected source down after 5 failures")
	}

	tr.RecordSuccess("oddsportal")

	if tr.IsSourceDown("oddsportal") {
		t.Error("expected source to no longer be down after a successful call")
	}
	if got := tr.State("oddsportal"); got != StateHealthy {
		t.Errorf("expected healthy state after success, got %s", got)
	}
}

func TestTracker_CooldownEdgeDoesNotClearDownState(t *testing.T) {
	tr := NewTracker()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	tr.now = func() time.Time { return cur }

	for i := 0; i < 5; i++ {
		tr.RecordFailure("understat", "blocked")
	}

	cur = start.Add(20 * time.Minute) // past the max 15m cooldown
	if tr.State("understat") != StateDown {
		t.Errorf("expected state down (not healthy) once cooldown elapses without a retry, got %s", tr.State("understat"))
	}
	if tr.IsSourceDown("understat") {
		t.Error("expected IsSourceDown false once the cooldown window has elapsed")
	}

	// the single retry attempt fails again: a fresh cooldown is assigned.
	tr.RecordFailure("understat", "blocked again")
	if !tr.IsSourceDown("understat") {
		t.Error("expected a fresh cooldown to mark the source down again after the retry failed")
	}
}

func TestTracker_DegradedThenDownThresholds(t *testing.T) {
	tr := NewTracker()
	if tr.State("espn") != StateHealthy {
		t.Fatalf("expected healthy with no recorded activity")
	}
	tr.RecordFailure("espn", "timeout")
	if tr.State("espn") != StateHealthy {
		t.Errorf("expected still healthy after 1 failure, got %s", tr.State("espn"))
	}
	tr.RecordFailure("espn", "timeout")
	if tr.State("espn") != StateDegraded {
		t.Errorf("expected degraded after 2 consecutive failures, got %s", tr.State("espn"))
	}
}

func TestTracker_AlertDedupWithinWindow(t *testing.T) {
	tr := NewTracker()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	tr.now = func() time.Time { return cur }

	for i := 0; i < 5; i++ {
		tr.RecordFailure("fotmob", "blocked")
	}
	tr.RecordSuccess("fotmob")
	for i := 0; i < 5; i++ {
		tr.RecordFailure("fotmob", "blocked")
	}

	cur = start.Add(10 * time.Minute)
	tr.RecordSuccess("fotmob")
	var alert *Alert
	for i := 0; i < 5; i++ {
		alert = tr.RecordFailure("fotmob", "blocked")
	}
	if alert != nil {
		t.Error("expected the repeated down alert within 30 minutes of the first to be deduplicated")
	}
}
