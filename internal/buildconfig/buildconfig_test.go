package buildconfig

import "testing"

func TestString(t *testing.T) {
	if got := String(); got != "dev (unknown)" {
		t.Errorf("String() = %q", got)
	}

	date = "2026-01-02"
	defer func() { date = "" }()
	if got := VersionInfo()["build_date"]; got != "2026-01-02" {
		t.Errorf("build_date = %q", got)
	}
}
