package os

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

var ErrNotExist = os.ErrNotExist

func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func CheckCreateDir(path string) error {
	if !Exists(path) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func ExpectTermination() chan struct{} {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{}, 1)
	go func() {
		<-signals
		done <- struct{}{}
	}()
	return done
}

// SnapshotPath makes a unique name for a snapshot of the video file in dir.
func SnapshotPath(dir, video string, t time.Time) string {
	name := "frame"
	if video != "" {
		base := filepath.Base(video)
		name = base[:len(base)-len(filepath.Ext(base))]
	}
	return filepath.Join(dir, name+"_"+t.Format("20060102_150405.000")+".png")
}
