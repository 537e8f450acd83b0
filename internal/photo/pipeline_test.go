package photo_test

import (
	"context"
	"testing"
	"time"

	"photodex/internal/model"
	"photodex/internal/photo"
	"photodex/internal/testutil"
)

// TestPipeline_IndexResolveRename drives the full flow one directory of
// photos goes through: index with dedup, resolve place names with caching,
// then bulk rename by label.
func TestPipeline_IndexResolveRename(t *testing.T) {
	ctx := context.Background()

	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddDirectory("/photos")
	fsmgr.AddFile("/photos/IMG_0001.jpg", []byte("cat-bytes"))
	fsmgr.AddFile("/photos/IMG_0002.jpg", []byte("dog-bytes"))

	catTaken := time.Date(2023, 7, 1, 9, 0, 0, 0, time.UTC)
	dogTaken := time.Date(2023, 7, 1, 15, 0, 0, 0, time.UTC)
	lat, lon := 42.5, -2.5

	extractor := testutil.NewFakeExtractor()
	extractor.Script("/photos/IMG_0001.jpg", &model.Photo{
		Label:     "Cat",
		TakenDate: &catTaken,
		Latitude:  &lat,
		Longitude: &lon,
	})
	extractor.Script("/photos/IMG_0002.jpg", &model.Photo{
		Label:     "Dog",
		TakenDate: &dogTaken,
	})

	db := testutil.NewTestDatabase(t)
	hasher := testutil.NewMockHasher(fsmgr)
	logger := photo.NopLogger{}

	index := photo.NewIndex(fsmgr, hasher, extractor, db, logger, 4)
	geocoder := testutil.NewFakeGeocoder()
	geocoder.Script(lat, lon, "en", "Haro, La Rioja, Spain")
	resolver := photo.NewResolver(db, geocoder, logger, testutil.NewStubIDGenerator())
	renamer := photo.NewRenamer(fsmgr, logger, testutil.FixedClock(), 1)

	// Index the directory.
	tree, err := index.BuildTree(ctx, "/photos", true)
	if err != nil {
		t.Fatalf("BuildTree() error = %v", err)
	}
	root := tree.Root()
	if len(root.Items) != 2 {
		t.Fatalf("indexed %d photos, want 2", len(root.Items))
	}

	// Resolve place names for the GPS-tagged photo.
	for _, p := range root.Items {
		if !p.HasGPS() {
			continue
		}
		res, err := resolver.Resolve(ctx, p, "en")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if res.State != photo.StateResolved || res.PlaceName != "Haro, La Rioja, Spain" {
			t.Fatalf("Resolve() = %+v", res)
		}
	}
	if geocoder.Calls() != 1 {
		t.Errorf("geocoder called %d times, want 1", geocoder.Calls())
	}

	// Rename everything by label, chronological prefix on.
	result, err := renamer.RenameAll(ctx, root, true)
	if err != nil {
		t.Fatalf("RenameAll() error = %v", err)
	}
	if result.FilesRenamed != 2 || len(result.Errors) != 0 {
		t.Fatalf("RenameAll() result = %+v", result)
	}
	if !fsmgr.Exists("/photos/1. Cat.jpg") || !fsmgr.Exists("/photos/2. Dog.jpg") {
		t.Fatalf("renamed files missing; have %v", fsmgr.Paths())
	}

	// Re-index: same content at new paths comes from the catalog, and the
	// resolved place name rides along without another network call.
	tree2, err := index.BuildTree(ctx, "/photos", true)
	if err != nil {
		t.Fatalf("second BuildTree() error = %v", err)
	}
	if extractor.TotalCalls() != 2 {
		t.Errorf("extractor called %d times total, want 2 (no re-extraction)", extractor.TotalCalls())
	}

	var cat *model.Photo
	for _, p := range tree2.Root().Items {
		if p.Label == "Cat" {
			cat = p
		}
	}
	if cat == nil {
		t.Fatal("Cat photo not found after re-index")
	}
	if cat.Path != "/photos/1. Cat.jpg" {
		t.Errorf("Cat path = %q, want renamed path", cat.Path)
	}
	if got := cat.LocalizedFor("en"); got != "Haro, La Rioja, Spain" {
		t.Errorf("Cat LocalizedFor(en) = %q, want denormalized place name", got)
	}
	if geocoder.Calls() != 1 {
		t.Errorf("geocoder called %d times after re-index, want still 1", geocoder.Calls())
	}
}
