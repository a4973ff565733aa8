package browser

import "testing"

func TestBuildExtraHeaders_MergesAndValidates(t *testing.T) {
	headers, err := buildExtraHeaders("ua", "https://example.com/search", map[string]string{
		"X-Custom": "value",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["X-Custom"] != "value" {
		t.Errorf("expected custom header to pass through, got %v", headers)
	}
	if headers["Referer"] != "https://example.com/search" {
		t.Errorf("expected referer to be set from lastURL, got %q", headers["Referer"])
	}
}

func TestBuildExtraHeaders_PreservesExplicitReferer(t *testing.T) {
	headers, err := buildExtraHeaders("ua", "https://example.com/fallback", map[string]string{
		"Referer": "https://example.com/explicit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if headers["Referer"] != "https://example.com/explicit" {
		t.Errorf("explicit referer should not be overwritten, got %q", headers["Referer"])
	}
}

func TestBuildExtraHeaders_RejectsForbiddenHeader(t *testing.T) {
	_, err := buildExtraHeaders("ua", "", map[string]string{
		"Host": "evil.example.com",
	})
	if err == nil {
		t.Fatal("expected an error for a forbidden header")
	}
}

func TestRandomViewport_ReturnsKnownResolution(t *testing.T) {
	known := map[[2]int]bool{
		{1920, 1080}: true,
		{1600, 900}:  true,
		{1536, 864}:  true,
		{1440, 900}:  true,
		{1366, 768}:  true,
	}

	for i := 0; i < 20; i++ {
		w, h := randomViewport()
		if !known[[2]int{w, h}] {
			t.Fatalf("unexpected viewport %dx%d", w, h)
		}
	}
}

func TestRestartOnFailure(t *testing.T) {
	cases := []struct {
		err    error
		expect bool
	}{
		{fmtErr("connection refused"), true},
		{fmtErr("timeout waiting for selector"), true},
		{fmtErr("element not found"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := restartOnFailure(tc.err); got != tc.expect {
			t.Errorf("restartOnFailure(%v) = %v, want %v", tc.err, got, tc.expect)
		}
	}
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func fmtErr(s string) error { return simpleErr(s) }
