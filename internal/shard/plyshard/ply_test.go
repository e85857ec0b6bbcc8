package plyshard

import (
	"testing"

	"github.com/discochess/connect4/internal/shard"
)

func TestStrategy_Name(t *testing.T) {
	s, err := New(DefaultWindow)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := s.Name(); got != "ply" {
		t.Errorf("Name() = %q, want %q", got, "ply")
	}
}

func TestStrategy_Count(t *testing.T) {
	tests := []struct {
		window int
		want   int
	}{
		{3, 14},
		{6, 7},
		{1, 42},
	}
	for _, tt := range tests {
		s, err := New(tt.window)
		if err != nil {
			t.Fatalf("New(%d) error = %v", tt.window, err)
		}
		if got := s.Count(); got != tt.want {
			t.Errorf("New(%d).Count() = %d, want %d", tt.window, got, tt.want)
		}
	}
}

func TestStrategy_Bucket(t *testing.T) {
	s, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tests := []struct {
		plies int
		want  int
	}{
		{0, 0}, {2, 0}, {3, 1}, {5, 1}, {6, 2}, {39, 13}, {41, 13}, {42, 13}, {-1, 0},
	}
	for _, tt := range tests {
		if got := s.Bucket(tt.plies); got != tt.want {
			t.Errorf("Bucket(%d) = %d, want %d", tt.plies, got, tt.want)
		}
	}
}

func TestStrategy_RangeCoversBuckets(t *testing.T) {
	for _, window := range []int{3, 6} {
		s, err := New(window)
		if err != nil {
			t.Fatalf("New(%d) error = %v", window, err)
		}
		for plies := 0; plies <= shard.MaxStoredPlies; plies++ {
			lo, hi := s.Range(s.Bucket(plies))
			if plies < lo || plies > hi {
				t.Errorf("window %d: plies %d outside Range(%d) = [%d, %d]", window, plies, s.Bucket(plies), lo, hi)
			}
		}
	}
}

func TestFileName(t *testing.T) {
	s, err := New(3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tests := []struct {
		bucket int
		want   string
	}{
		{0, "00_table_0_2.txt"},
		{3, "03_table_9_11.txt"},
		{13, "13_table_39_41.txt"},
	}
	for _, tt := range tests {
		if got := shard.FileName(s, tt.bucket); got != tt.want {
			t.Errorf("FileName(%d) = %q, want %q", tt.bucket, got, tt.want)
		}
	}
}

func TestNewInvalid(t *testing.T) {
	for _, w := range []int{0, -3, 43} {
		if _, err := New(w); err == nil {
			t.Errorf("New(%d) error = nil, want error", w)
		}
	}
}
