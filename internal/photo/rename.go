package photo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"photodex/internal/model"
)

// maxFileNameLength caps the total length of a generated filename,
// extension and disambiguation suffix included.
const maxFileNameLength = 260

// invalidFileNameChars matches every character that is not valid in a
// filename on at least one supported filesystem.
var invalidFileNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// Renamer performs bulk, collision-safe renaming of labeled photos.
type Renamer struct {
	fsmgr   FilesystemManager
	logger  Logger
	clock   Clock
	workers int
}

// NewRenamer creates a Renamer. workers bounds concurrent rename
// operations; values below 1 fall back to 1.
func NewRenamer(fsmgr FilesystemManager, logger Logger, clock Clock, workers int) *Renamer {
	if workers < 1 {
		workers = 1
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Renamer{fsmgr: fsmgr, logger: logger, clock: clock, workers: workers}
}

// RenameAll renames every labeled photo in the node's directory to its
// label. Unlabeled photos are skipped, not errors. When addSortPrefix is
// true, filenames gain a zero-padded numeric prefix reflecting the
// ascending taken-date order.
//
// A per-item failure is appended to the result's error list and never
// aborts sibling renames. Only a nil node fails the whole call.
func (r *Renamer) RenameAll(ctx context.Context, node *Node, addSortPrefix bool) (*model.RenamingResult, error) {
	if node == nil {
		return nil, errors.New("node must not be nil")
	}

	var labeled []*model.Photo
	for _, p := range node.Items {
		if strings.TrimSpace(p.Label) != "" {
			labeled = append(labeled, p)
		}
	}

	// Rename order feeds the sort prefix: ascending taken date, falling
	// back to the file's modification time when no taken date exists.
	sort.SliceStable(labeled, func(i, j int) bool {
		return r.sortTime(labeled[i]).Before(r.sortTime(labeled[j]))
	})

	result := &model.RenamingResult{TotalFiles: len(labeled)}

	reservations := newTargetReservations()
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	renamed := 0

	var cancelErr error
	for i, p := range labeled {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		wg.Add(1)
		go func(prefixIndex int, p *model.Photo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			moved, err := r.renameOne(node.Path, p, reservations, prefixIndex, len(labeled), addSortPrefix)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				return
			}
			if moved {
				renamed++
			}
		}(i+1, p)
	}
	wg.Wait()
	if cancelErr != nil {
		return nil, cancelErr
	}

	result.FilesRenamed = renamed
	return result, nil
}

// targetReservations tracks target paths claimed by in-flight renames, so
// two workers that compute the same name never move onto each other's file.
type targetReservations struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func newTargetReservations() *targetReservations {
	return &targetReservations{claimed: make(map[string]struct{})}
}

// claim returns the first candidate that is neither claimed by another
// worker nor present on disk, and records it. A candidate equal to oldName
// is returned unclaimed: no move will happen for it, and the file itself
// keeps occupying that name on disk.
func (t *targetReservations) claim(oldName string, exists func(string) bool, candidate func(duplicateIndex int) string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := candidate(0)
	for duplicateIndex := 1; ; duplicateIndex++ {
		if name == oldName {
			return name
		}
		if _, taken := t.claimed[name]; !taken && !exists(name) {
			t.claimed[name] = struct{}{}
			return name
		}
		name = candidate(duplicateIndex)
	}
}

// renameOne moves a single photo to its computed target name. Returns true
// when a filesystem move actually happened; an idempotent no-op rename
// still reapplies timestamps.
func (r *Renamer) renameOne(basePath string, p *model.Photo, reservations *targetReservations, prefixIndex, totalFiles int, addPrefix bool) (bool, error) {
	if strings.TrimSpace(p.Label) == "" {
		return false, fmt.Errorf("photo %s has no label", p.Path)
	}

	oldName := p.Path
	newName := reservations.claim(oldName, r.fsmgr.Exists, func(duplicateIndex int) string {
		return r.targetName(basePath, p, duplicateIndex, prefixIndex, totalFiles, addPrefix)
	})
	if newName == oldName {
		r.applyTimes(p, newName)
		return false, nil
	}

	if err := r.fsmgr.Rename(oldName, newName); err != nil {
		return false, fmt.Errorf("renaming %s: %w", oldName, err)
	}
	r.logger.Debug("photo renamed", "from", oldName, "to", newName)
	r.applyTimes(p, newName)
	return true, nil
}

// targetName computes the sanitized, length-bounded target path for a
// photo. duplicateIndex > 0 appends " (N)" before the extension.
func (r *Renamer) targetName(basePath string, p *model.Photo, duplicateIndex, prefixIndex, totalFiles int, addPrefix bool) string {
	extension := filepath.Ext(p.Path)
	maxLength := maxFileNameLength - len(extension)
	suffix := ""
	if duplicateIndex > 0 {
		suffix = fmt.Sprintf(" (%d)", duplicateIndex)
		maxLength -= len(suffix)
	}

	prefix := ""
	if addPrefix {
		width := len(strconv.Itoa(totalFiles))
		prefix = fmt.Sprintf("%0*d. ", width, prefixIndex)
		maxLength -= len(prefix)
	}

	name := p.Label
	if len(name) > maxLength {
		cut := maxLength - 3
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut] + "..."
	}
	name = invalidFileNameChars.ReplaceAllString(name, "_")

	return filepath.Join(basePath, prefix+name+suffix+extension)
}

// applyTimes best-effort reapplies the photo's dates to the file: the
// taken date as both times, preferring the modified date for mtime.
// Failures are swallowed.
func (r *Renamer) applyTimes(p *model.Photo, path string) {
	if p.TakenDate == nil && p.ModifiedDate == nil {
		return
	}
	atime := r.clock.Now()
	if p.TakenDate != nil {
		atime = *p.TakenDate
	}
	mtime := atime
	if p.ModifiedDate != nil {
		mtime = *p.ModifiedDate
	}
	if err := r.fsmgr.SetTimes(path, atime, mtime); err != nil {
		r.logger.Debug("could not reapply file times", "path", path, "error", err)
	}
}

// sortTime returns the timestamp that orders a photo for renaming.
func (r *Renamer) sortTime(p *model.Photo) time.Time {
	if p.TakenDate != nil {
		return *p.TakenDate
	}
	if info, err := r.fsmgr.Stat(p.Path); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
