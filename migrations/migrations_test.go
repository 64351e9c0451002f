package migrations

import (
	"strings"
	"testing"
)

func TestScripts(t *testing.T) {
	names, scripts, err := Scripts(Up)
	if err != nil {
		t.Fatalf("Scripts(Up) error: %v", err)
	}
	if len(names) == 0 || len(names) != len(scripts) {
		t.Fatalf("got %d names and %d scripts", len(names), len(scripts))
	}
	if !strings.Contains(scripts[0], "CREATE TABLE IF NOT EXISTS preferences") {
		t.Errorf("first up script does not create preferences: %q", scripts[0])
	}

	downNames, _, err := Scripts(Down)
	if err != nil {
		t.Fatalf("Scripts(Down) error: %v", err)
	}
	if len(downNames) != len(names) {
		t.Errorf("up/down count mismatch: %d vs %d", len(names), len(downNames))
	}

	if _, _, err := Scripts("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
}
