package os

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshotPath(t *testing.T) {
	at := time.Date(2024, 3, 1, 13, 4, 5, 6e6, time.UTC)
	tests := []struct {
		video string
		want  string
	}{
		{video: "", want: "frame_20240301_130405.006.png"},
		{video: "/videos/cat.mp4", want: "cat_20240301_130405.006.png"},
		{video: "no_ext", want: "no_ext_20240301_130405.006.png"},
	}
	for _, test := range tests {
		if got := SnapshotPath("out", test.video, at); got != filepath.Join("out", test.want) {
			t.Errorf("%v: got %v, want %v", test.video, got, test.want)
		}
	}
}

func TestCheckCreateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if Exists(dir) {
		t.Fatalf("%v exists", dir)
	}
	if err := CheckCreateDir(dir); err != nil {
		t.Fatal(err)
	}
	if !Exists(dir) {
		t.Errorf("%v wasn't created", dir)
	}
}
