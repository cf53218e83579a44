package termstat_test

import (
	"io/ioutil"
	"testing"

	"github.com/spindash/spindash/termstat"
)

func TestCollectorCounts(t *testing.T) {
	c := termstat.NewCollector(ioutil.Discard)
	c.Count("records", 1, 1)
	c.Count("records", 2, 1)
	c.Count("kept", 5, 1)

	snap := c.Snapshot()
	if snap["records"] != 3 {
		t.Fatalf("expected records=3, got %d", snap["records"])
	}
	if snap["kept"] != 5 {
		t.Fatalf("expected kept=5, got %d", snap["kept"])
	}
}
