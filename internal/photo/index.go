package photo

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"photodex/internal/model"
)

// supportedExtensions is the allow-list of media files the index considers.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".tiff": true,
	".raw":  true,
	".heic": true,
	".mp4":  true,
	".mov":  true,
}

// Index builds directory trees and populates them with photo records,
// deduplicating extraction work through the content-hash catalog.
type Index struct {
	fsmgr       FilesystemManager
	hasher      Hasher
	extractor   MetadataExtractor
	database    Database
	logger      Logger
	hashWorkers int
}

// NewIndex creates an Index. hashWorkers bounds the number of concurrent
// hash and extraction operations per batch; values below 1 fall back to 1.
func NewIndex(fsmgr FilesystemManager, hasher Hasher, extractor MetadataExtractor, database Database, logger Logger, hashWorkers int) *Index {
	if hashWorkers < 1 {
		hashWorkers = 1
	}
	return &Index{
		fsmgr:       fsmgr,
		hasher:      hasher,
		extractor:   extractor,
		database:    database,
		logger:      logger,
		hashWorkers: hashWorkers,
	}
}

// BuildTree enumerates every directory beneath root and assembles the node
// tree. Nodes are created shallowest-first, then lexicographic; the root is
// node 0 and starts selected and expanded.
//
// When recursive is true, every node's items are loaded eagerly; otherwise
// nodes start with ItemsLoaded false and are populated via LoadItemsInto.
// Cancellation discards the partial tree and returns ctx.Err().
func (x *Index) BuildTree(ctx context.Context, root string, recursive bool) (*Tree, error) {
	root = strings.TrimRight(root, string(filepath.Separator))
	if root == "" {
		root = string(filepath.Separator)
	}

	dirs, err := x.fsmgr.FindDirectories(root)
	if err != nil {
		return nil, err
	}

	// Relative paths ordered by depth, then lexicographic. The root sorts
	// first as the empty relative path.
	rels := make([]string, 0, len(dirs))
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d)
		if err != nil {
			return nil, err
		}
		if rel == "." {
			rel = ""
		}
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool {
		di := strings.Count(rels[i], string(filepath.Separator))
		dj := strings.Count(rels[j], string(filepath.Separator))
		if len(rels[i]) == 0 || len(rels[j]) == 0 {
			return len(rels[i]) == 0
		}
		if di != dj {
			return di < dj
		}
		return rels[i] < rels[j]
	})

	tree := &Tree{}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fullDir := root
		level := 0
		parentID := -1
		if rel != "" {
			fullDir = filepath.Join(root, rel)
			level = strings.Count(rel, string(filepath.Separator)) + 1
			parentDir := filepath.Dir(fullDir)
			parent := tree.findNodeByPath(parentDir)
			if parent == nil {
				// Directory appeared without its parent in the listing;
				// skip it rather than fail the whole build.
				x.logger.Warn("orphan directory skipped", "path", fullDir)
				continue
			}
			parentID = parent.ID
		}

		node := &Node{
			ParentID: parentID,
			Path:     fullDir,
			Name:     filepath.Base(fullDir),
			Level:    level,
		}
		tree.addNode(node)

		if recursive {
			items, err := x.LoadItems(ctx, fullDir)
			if err != nil {
				return nil, err
			}
			node.Items = items
			node.ItemsLoaded = true
			for _, p := range items {
				if p.HasErrors() {
					node.Errs = append(node.Errs, p.Err)
				}
			}
		}
	}

	if err := tree.Select(0); err != nil {
		return nil, err
	}
	return tree, nil
}

// LoadItems lists the supported media files directly in dir, hashes them
// with bounded concurrency, reuses catalog rows for content seen before,
// extracts metadata for unseen content, and persists each newly-extracted
// record exactly once per distinct hash.
//
// Individual file failures never abort the batch: the offending record
// carries the error and no metadata fields. The returned order is the
// underlying directory listing order.
func (x *Index) LoadItems(ctx context.Context, dir string) ([]*model.Photo, error) {
	x.logger.Debug("loading photos", "dir", dir)

	files, err := x.fsmgr.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	var filtered []string
	for _, f := range files {
		if supportedExtensions[strings.ToLower(filepath.Ext(f))] {
			filtered = append(filtered, f)
		}
	}
	x.logger.Debug("supported files found", "count", len(filtered))
	if len(filtered) == 0 {
		return []*model.Photo{}, nil
	}

	hashes, err := x.hashFiles(ctx, filtered)
	if err != nil {
		return nil, err
	}

	var md5List []string
	for _, f := range filtered {
		if h := hashes[f]; h != "" {
			md5List = append(md5List, h)
		}
	}
	stored, err := x.database.GetPhotosByMd5List(md5List)
	if err != nil {
		return nil, err
	}
	storedByMd5 := make(map[string]*model.Photo, len(stored))
	for _, p := range stored {
		storedByMd5[p.Md5Sum] = p
	}
	x.logger.Debug("stored photos retrieved", "count", len(stored))

	photos, toAdd, err := x.extractOrReuse(ctx, filtered, hashes, storedByMd5)
	if err != nil {
		return nil, err
	}

	// Two files with the same hash in one batch must not both insert the
	// same catalog row.
	seen := make(map[string]bool, len(toAdd))
	for _, p := range toAdd {
		if seen[p.Md5Sum] {
			continue
		}
		seen[p.Md5Sum] = true
		x.logger.Debug("adding photo to catalog", "path", p.Path)
		if err := x.database.AddPhoto(p); err != nil {
			return nil, err
		}
	}

	return photos, nil
}

// LoadItemsInto loads items for a tree node with version fencing: if a
// newer load for the same node starts before this one completes, the stale
// results are discarded. Returns false when the results were discarded.
func (x *Index) LoadItemsInto(ctx context.Context, tree *Tree, nodeID int) (bool, error) {
	node, err := tree.Node(nodeID)
	if err != nil {
		return false, err
	}
	generation, err := tree.beginLoad(nodeID)
	if err != nil {
		return false, err
	}

	items, err := x.LoadItems(ctx, node.Path)
	if err != nil {
		return false, err
	}
	return tree.applyLoad(nodeID, generation, items), nil
}

// hashFiles computes content hashes for all files under the worker bound.
// The returned map is keyed by path; files that failed to hash are absent
// and reported through the photo records later.
func (x *Index) hashFiles(ctx context.Context, files []string) (map[string]string, error) {
	x.logger.Debug("hashing files", "count", len(files))

	type hashResult struct {
		path string
		sum  string
		err  error
	}

	sem := make(chan struct{}, x.hashWorkers)
	results := make(chan hashResult, len(files))
	var wg sync.WaitGroup

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			sum, err := x.hasher.HashFile(ctx, path)
			results <- hashResult{path: path, sum: sum, err: err}
		}(f)
	}
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(files))
	for r := range results {
		if r.err != nil {
			x.logger.Warn("hashing failed", "path", r.path, "error", r.err)
			continue
		}
		hashes[r.path] = r.sum
	}
	return hashes, nil
}

// extractOrReuse builds the photo record for every file: a catalog hit
// copies the stored record onto the file's path, a miss runs the metadata
// extractor. Extraction failures become error records, not batch failures.
func (x *Index) extractOrReuse(ctx context.Context, files []string, hashes map[string]string, stored map[string]*model.Photo) (photos []*model.Photo, toAdd []*model.Photo, err error) {
	sem := make(chan struct{}, x.hashWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	out := make([]*model.Photo, len(files))

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			sum := hashes[path]
			if s, ok := stored[sum]; ok && sum != "" {
				x.logger.Debug("catalog hit", "md5", sum)
				copied := *s
				copied.Path = path
				out[idx] = &copied
				return
			}

			p, extractErr := x.extractor.ExtractPhoto(ctx, path)
			if extractErr != nil {
				out[idx] = &model.Photo{
					Path:   path,
					Md5Sum: sum,
					Err:    &LoadPhotoError{Path: path, Err: extractErr},
				}
				return
			}
			p.Md5Sum = sum
			out[idx] = p
			if sum != "" {
				mu.Lock()
				toAdd = append(toAdd, p)
				mu.Unlock()
			}
		}(i, f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	for _, p := range out {
		if p != nil {
			photos = append(photos, p)
		}
	}
	return photos, toAdd, nil
}
