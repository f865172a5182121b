package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var _ CronJob = (*UploadSweeper)(nil)

// UploadSweeper removes archive extraction directories left behind by interrupted imports.
type UploadSweeper struct {
	dir      string
	prefix   string
	maxAge   time.Duration
	schedule string
	now      func() time.Time
}

func NewUploadSweeper(dir, prefix string, maxAge time.Duration, schedule string) *UploadSweeper {
	if dir == "" {
		dir = os.TempDir()
	}

	return &UploadSweeper{
		dir:      dir,
		prefix:   prefix,
		maxAge:   maxAge,
		schedule: schedule,
		now:      time.Now,
	}
}

func (u *UploadSweeper) Name() string {
	return "upload_sweeper"
}

func (u *UploadSweeper) Schedule() string {
	return u.schedule
}

func (u *UploadSweeper) Run() {
	removed, err := u.sweep()
	if err != nil {
		logrus.Errorf("upload sweep failed: %v", err)
		return
	}

	if removed > 0 {
		logrus.Infof("removed %d stale upload dirs from %s", removed, u.dir)
	}
}

func (u *UploadSweeper) sweep() (int, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return 0, err
	}

	cutoff := u.now().Add(-u.maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), u.prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(u.dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logrus.Warnf("failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}

	return removed, nil
}
