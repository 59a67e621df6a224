package batch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
Janitor removes batch workspaces that were never exported.

A workspace whose directory was last modified more than TTL ago is
deleted on the next sweep. Only directories named like a batch id are
touched.
*/
type Janitor struct {
	DataRoot string
	TTL      time.Duration
	Interval time.Duration
	Now      func() time.Time
}

func NewJanitor(dataRoot string, cfg Config) *Janitor {
	return &Janitor{
		DataRoot: dataRoot,
		TTL:      time.Duration(cfg.RetentionMinutes) * time.Minute,
		Interval: time.Duration(cfg.JanitorIntervalMinutes) * time.Minute,
		Now:      time.Now,
	}
}

// Run sweeps every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	tl.Log(tl.Info, palette.Purple, "Janitor started for '%s' (ttl %s, every %s)", j.DataRoot, j.TTL, j.Interval)
	for {
		select {
		case <-ctx.Done():
			tl.Log(tl.Info, palette.Purple, "Janitor for '%s' stopped", j.DataRoot)
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep removes expired workspaces once and returns their ids.
func (j *Janitor) Sweep() (removed []string) {
	entries, err := os.ReadDir(j.DataRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			tl.Log(tl.Warning, palette.Yellow, "Janitor cannot read '%s': '%s'", j.DataRoot, err)
		}
		return nil
	}

	cutoff := j.Now().Add(-j.TTL)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, parseErr := uuid.Parse(entry.Name()); parseErr != nil {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil || info.ModTime().After(cutoff) {
			continue
		}

		ws := Workspace{ID: entry.Name(), Root: filepath.Join(j.DataRoot, entry.Name())}
		e := ws.Remove()
		if e != nil {
			tl.Log(tl.Warning, palette.Yellow, "Janitor failed to remove '%s': '%s'", ws.Root, e)
			continue
		}
		removed = append(removed, ws.ID)
	}

	if len(removed) > 0 {
		tl.Log(tl.Notice, palette.PurpleBold, "Janitor removed '%d' expired batches", len(removed))
	}
	return removed
}
