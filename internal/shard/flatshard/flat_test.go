package flatshard

import (
	"testing"

	"github.com/discochess/connect4/internal/shard"
)

func TestStrategy(t *testing.T) {
	s := New()
	if got := s.Name(); got != "flat" {
		t.Errorf("Name() = %q, want %q", got, "flat")
	}
	for _, plies := range []int{0, 17, 41} {
		if got := s.Bucket(plies); got != 0 {
			t.Errorf("Bucket(%d) = %d, want 0", plies, got)
		}
	}
	if got := shard.FileName(s, 0); got != "00_table_0_41.txt" {
		t.Errorf("FileName() = %q", got)
	}
}
