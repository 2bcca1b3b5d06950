package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/clipd/clipd/internal/fingerprint"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:clipd_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&Clip{}, &TagRow{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	return newTestStoreAt(t, time.Unix(1700000600, 0).UTC())
}

func newTestStoreAt(t *testing.T, now time.Time) (*Store, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	storage, err := New(Config{
		Database: db,
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	return storage, db
}

func textClip(t *testing.T, content string) NewClip {
	t.Helper()
	clip, err := NewTextClip(content, fingerprint.Sum([]byte(content)), int64(len(content)))
	if err != nil {
		t.Fatalf("unexpected text clip error: %v", err)
	}
	return clip
}

func imageClip(t *testing.T, path string, width, height int) NewClip {
	t.Helper()
	hashInput := fmt.Sprintf("%s:%dx%d", path, width, height)
	clip, err := NewImageClip(path, width, height, fingerprint.Sum([]byte(hashInput)), 1024)
	if err != nil {
		t.Fatalf("unexpected image clip error: %v", err)
	}
	return clip
}

func mustInsert(t *testing.T, storage *Store, clip NewClip) Clip {
	t.Helper()
	inserted, err := storage.Insert(context.Background(), clip)
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	return inserted
}

func TestInsertTextClip(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "hello world"))

	if clip.ContentType != ContentTypeText {
		t.Fatalf("unexpected content type %q", clip.ContentType)
	}
	if clip.TextContent == nil || *clip.TextContent != "hello world" {
		t.Fatalf("unexpected text content %v", clip.TextContent)
	}
	if clip.SizeBytes != 11 {
		t.Fatalf("unexpected size %d", clip.SizeBytes)
	}
	if clip.Pinned {
		t.Fatalf("new clips must start unpinned")
	}
	if len(clip.Tags) != 0 {
		t.Fatalf("new clips must start untagged, got %v", clip.Tags)
	}
	if clip.CreatedAt.IsZero() || clip.UpdatedAt.IsZero() {
		t.Fatalf("timestamps must be assigned at insert")
	}
}

func TestInsertImageClip(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, imageClip(t, "/tmp/img.png", 800, 600))

	if clip.ContentType != ContentTypeImage {
		t.Fatalf("unexpected content type %q", clip.ContentType)
	}
	if clip.ImagePath == nil || *clip.ImagePath != "/tmp/img.png" {
		t.Fatalf("unexpected image path %v", clip.ImagePath)
	}
	if clip.ImageWidth == nil || *clip.ImageWidth != 800 {
		t.Fatalf("unexpected width %v", clip.ImageWidth)
	}
	if clip.ImageHeight == nil || *clip.ImageHeight != 600 {
		t.Fatalf("unexpected height %v", clip.ImageHeight)
	}
}

func TestInsertReturnsIncrementingIDs(t *testing.T) {
	storage, _ := newTestStore(t)
	first := mustInsert(t, storage, textClip(t, "first"))
	second := mustInsert(t, storage, textClip(t, "second"))
	third := mustInsert(t, storage, textClip(t, "third"))

	if first.ID != 1 || second.ID != 2 || third.ID != 3 {
		t.Fatalf("expected ids 1,2,3 got %d,%d,%d", first.ID, second.ID, third.ID)
	}
}

func TestInsertDuplicateHashFails(t *testing.T) {
	storage, db := newTestStore(t)
	mustInsert(t, storage, textClip(t, "same content"))

	_, err := storage.Insert(context.Background(), textClip(t, "same content"))
	if err == nil {
		t.Fatalf("expected duplicate hash to fail")
	}
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %T: %v", err, err)
	}

	var count int64
	if err := db.Model(&Clip{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("duplicate insert must not leave a second row, got %d", count)
	}
}

func TestGetByID(t *testing.T) {
	storage, _ := newTestStore(t)
	inserted := mustInsert(t, storage, textClip(t, "find me"))

	found, err := storage.GetByID(context.Background(), inserted.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != inserted.ID {
		t.Fatalf("id mismatch: want %d got %d", inserted.ID, found.ID)
	}
	if found.TextContent == nil || *found.TextContent != "find me" {
		t.Fatalf("unexpected text content %v", found.TextContent)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	storage, _ := newTestStore(t)
	_, err := storage.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListEmpty(t *testing.T) {
	storage, _ := newTestStore(t)
	clips, err := storage.List(context.Background(), ClipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("expected empty listing, got %d clips", len(clips))
	}
}

func TestListReturnsClipsNewestFirst(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, textClip(t, "one"))
	mustInsert(t, storage, textClip(t, "two"))

	clips, err := storage.List(context.Background(), ClipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if clips[0].ID <= clips[1].ID {
		t.Fatalf("expected descending id order, got %d then %d", clips[0].ID, clips[1].ID)
	}
}

func TestListLimitAndOffset(t *testing.T) {
	storage, _ := newTestStore(t)
	for i := 0; i < 5; i++ {
		mustInsert(t, storage, textClip(t, fmt.Sprintf("clip %d", i)))
	}

	limited, err := storage.List(context.Background(), ClipFilter{Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(limited))
	}

	paged, err := storage.List(context.Background(), ClipFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paged) != 2 {
		t.Fatalf("expected 2 clips after offset, got %d", len(paged))
	}
}

func TestListFilterByType(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, textClip(t, "text"))
	mustInsert(t, storage, imageClip(t, "/img.png", 100, 100))

	contentType := ContentTypeText
	clips, err := storage.List(context.Background(), ClipFilter{ContentType: &contentType})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(clips))
	}
	if clips[0].ContentType != ContentTypeText {
		t.Fatalf("unexpected content type %q", clips[0].ContentType)
	}
}

func TestListFilterByPinned(t *testing.T) {
	storage, _ := newTestStore(t)
	pinnedClip := mustInsert(t, storage, textClip(t, "pinned"))
	mustInsert(t, storage, textClip(t, "not pinned"))
	if err := storage.SetPinned(context.Background(), pinnedClip.ID, true); err != nil {
		t.Fatalf("unexpected pin error: %v", err)
	}

	pinned := true
	clips, err := storage.List(context.Background(), ClipFilter{Pinned: &pinned})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 || !clips[0].Pinned {
		t.Fatalf("expected exactly the pinned clip, got %+v", clips)
	}
}

func TestListFilterByTag(t *testing.T) {
	storage, _ := newTestStore(t)
	tagged := mustInsert(t, storage, textClip(t, "tagged"))
	mustInsert(t, storage, textClip(t, "untagged"))
	if err := storage.AddTag(context.Background(), tagged.ID, "important"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}

	tag := "important"
	clips, err := storage.List(context.Background(), ClipFilter{Tag: &tag})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(clips))
	}
	if clips[0].TextContent == nil || *clips[0].TextContent != "tagged" {
		t.Fatalf("unexpected clip %+v", clips[0])
	}
}

func TestListTagFilterReturnsEachClipOnce(t *testing.T) {
	storage, _ := newTestStore(t)
	multi := mustInsert(t, storage, textClip(t, "multi"))
	ctx := context.Background()
	for _, tag := range []string{"work", "todo", "later"} {
		if err := storage.AddTag(ctx, multi.ID, tag); err != nil {
			t.Fatalf("unexpected tag error: %v", err)
		}
	}

	tag := "work"
	clips, err := storage.List(ctx, ClipFilter{Tag: &tag})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("multi-tagged clip must appear exactly once, got %d rows", len(clips))
	}
	if len(clips[0].Tags) != 3 {
		t.Fatalf("filtered listing must still carry all tags, got %v", clips[0].Tags)
	}
}

func TestListFilterComposition(t *testing.T) {
	storage, _ := newTestStore(t)
	ctx := context.Background()

	match := mustInsert(t, storage, textClip(t, "the one"))
	if err := storage.SetPinned(ctx, match.ID, true); err != nil {
		t.Fatalf("unexpected pin error: %v", err)
	}
	if err := storage.AddTag(ctx, match.ID, "work"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}
	if err := storage.AddTag(ctx, match.ID, "misc"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}

	pinnedOnly := mustInsert(t, storage, textClip(t, "pinned only"))
	if err := storage.SetPinned(ctx, pinnedOnly.ID, true); err != nil {
		t.Fatalf("unexpected pin error: %v", err)
	}

	taggedImage := mustInsert(t, storage, imageClip(t, "/img.png", 10, 10))
	if err := storage.AddTag(ctx, taggedImage.ID, "work"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}

	contentType := ContentTypeText
	pinned := true
	tag := "work"
	clips, err := storage.List(ctx, ClipFilter{ContentType: &contentType, Pinned: &pinned, Tag: &tag})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 || clips[0].ID != match.ID {
		t.Fatalf("expected exactly the fully matching clip, got %+v", clips)
	}

	foundMisc := false
	for _, got := range clips[0].Tags {
		if got == "misc" {
			foundMisc = true
		}
	}
	if !foundMisc {
		t.Fatalf("tag aggregation must be independent of the tag filter, got %v", clips[0].Tags)
	}
}

func TestSearchFindsMatch(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, textClip(t, "hello world"))
	mustInsert(t, storage, textClip(t, "goodbye world"))

	results, err := storage.Search(context.Background(), "hello", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].TextContent == nil || *results[0].TextContent != "hello world" {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, textClip(t, "Hello World"))

	results, err := storage.Search(context.Background(), "hello", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearchNoResults(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, textClip(t, "hello"))

	results, err := storage.Search(context.Background(), "xyz", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchSkipsImageClips(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, imageClip(t, "/screenshots/hello.png", 10, 10))

	results, err := storage.Search(context.Background(), "hello", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("image clips have no text content and must never match, got %d", len(results))
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	storage, _ := newTestStore(t)
	for i := 0; i < 5; i++ {
		mustInsert(t, storage, textClip(t, fmt.Sprintf("match %d", i)))
	}

	results, err := storage.Search(context.Background(), "match", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestDeleteExisting(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "delete me"))

	deleted, err := storage.Delete(context.Background(), clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report a removed row")
	}
	if _, err := storage.GetByID(context.Background(), clip.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteNonexistent(t *testing.T) {
	storage, _ := newTestStore(t)
	deleted, err := storage.Delete(context.Background(), 999)
	if err != nil {
		t.Fatalf("delete of a missing id must not error: %v", err)
	}
	if deleted {
		t.Fatalf("expected no row removed")
	}
}

func TestDeleteCascadesTags(t *testing.T) {
	storage, db := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "tagged"))
	ctx := context.Background()
	if err := storage.AddTag(ctx, clip.ID, "tag1"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}
	if err := storage.AddTag(ctx, clip.ID, "tag2"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}

	if _, err := storage.Delete(ctx, clip.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	var count int64
	if err := db.Model(&TagRow{}).Where("clip_id = ?", clip.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orphan tag rows, got %d", count)
	}
}

func TestFindByHash(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "unique"))

	found, err := storage.FindByHash(context.Background(), clip.Hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.ID != clip.ID {
		t.Fatalf("expected to find clip %d, got %+v", clip.ID, found)
	}
}

func TestFindByHashAbsent(t *testing.T) {
	storage, _ := newTestStore(t)
	found, err := storage.FindByHash(context.Background(), "nonexistent_hash")
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil, got %+v", found)
	}
}

func TestAddTag(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "taggable"))
	ctx := context.Background()

	if err := storage.AddTag(ctx, clip.ID, "work"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, err := storage.GetByID(ctx, clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetched.Tags) != 1 || fetched.Tags[0] != "work" {
		t.Fatalf("unexpected tags %v", fetched.Tags)
	}
}

func TestAddDuplicateTagIsNoOp(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "dup tag"))
	ctx := context.Background()

	if err := storage.AddTag(ctx, clip.ID, "same"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := storage.AddTag(ctx, clip.ID, "same"); err != nil {
		t.Fatalf("adding an existing tag must be silent: %v", err)
	}

	fetched, err := storage.GetByID(ctx, clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetched.Tags) != 1 || fetched.Tags[0] != "same" {
		t.Fatalf("expected a single tag, got %v", fetched.Tags)
	}
}

func TestRemoveTag(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "removable tag"))
	ctx := context.Background()

	if err := storage.AddTag(ctx, clip.ID, "temp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := storage.RemoveTag(ctx, clip.ID, "temp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, err := storage.GetByID(ctx, clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fetched.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", fetched.Tags)
	}
}

func TestRemoveAbsentTagIsNoOp(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "no tags"))
	if err := storage.RemoveTag(context.Background(), clip.ID, "ghost"); err != nil {
		t.Fatalf("removing an absent tag must be silent: %v", err)
	}
}

func TestSetPinned(t *testing.T) {
	storage, _ := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "pin me"))
	ctx := context.Background()

	if err := storage.SetPinned(ctx, clip.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fetched, err := storage.GetByID(ctx, clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fetched.Pinned {
		t.Fatalf("expected clip to be pinned")
	}

	if err := storage.SetPinned(ctx, clip.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fetched, err = storage.GetByID(ctx, clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.Pinned {
		t.Fatalf("expected clip to be unpinned")
	}
}

func TestSetPinnedMissingIDIsTolerated(t *testing.T) {
	storage, _ := newTestStore(t)
	if err := storage.SetPinned(context.Background(), 999, true); err != nil {
		t.Fatalf("pinning a missing id must affect zero rows without error: %v", err)
	}
}

func TestClearOlderThan(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	storage, _ := newTestStoreAt(t, base)
	ctx := context.Background()

	mustInsert(t, storage, textClip(t, "old"))
	mustInsert(t, storage, textClip(t, "also old"))

	removed, err := storage.ClearOlderThan(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	clips, err := storage.List(ctx, ClipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("expected empty store, got %d clips", len(clips))
	}
}

func TestClearOlderThanSkipsPinned(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	storage, db := newTestStoreAt(t, base)
	ctx := context.Background()

	pinnedClip := mustInsert(t, storage, textClip(t, "pinned old"))
	if err := storage.SetPinned(ctx, pinnedClip.ID, true); err != nil {
		t.Fatalf("unexpected pin error: %v", err)
	}
	taggedVictim := mustInsert(t, storage, textClip(t, "unpinned old"))
	if err := storage.AddTag(ctx, taggedVictim.ID, "stale"); err != nil {
		t.Fatalf("unexpected tag error: %v", err)
	}

	removed, err := storage.ClearOlderThan(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	clips, err := storage.List(ctx, ClipFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clips) != 1 || !clips[0].Pinned {
		t.Fatalf("expected only the pinned clip to survive, got %+v", clips)
	}

	stats, err := storage.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected stats error: %v", err)
	}
	if stats.TotalClips != 1 {
		t.Fatalf("stats must reflect the surviving pinned clip, got %d", stats.TotalClips)
	}

	var orphanTags int64
	if err := db.Model(&TagRow{}).Where("clip_id = ?", taggedVictim.ID).Count(&orphanTags).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orphanTags != 0 {
		t.Fatalf("pruning must cascade tag rows, found %d orphans", orphanTags)
	}
}

func TestStatsEmpty(t *testing.T) {
	storage, _ := newTestStore(t)
	stats, err := storage.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalClips != 0 || stats.TextClips != 0 || stats.ImageClips != 0 || stats.TotalSize != 0 {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
	if stats.Oldest != nil || stats.Newest != nil {
		t.Fatalf("expected absent timestamps on an empty store, got %+v", stats)
	}
}

func TestStatsCounts(t *testing.T) {
	storage, _ := newTestStore(t)
	mustInsert(t, storage, textClip(t, "text1"))
	mustInsert(t, storage, textClip(t, "text2"))
	mustInsert(t, storage, imageClip(t, "/img.png", 100, 100))

	stats, err := storage.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalClips != 3 {
		t.Fatalf("expected 3 total, got %d", stats.TotalClips)
	}
	if stats.TextClips != 2 {
		t.Fatalf("expected 2 text, got %d", stats.TextClips)
	}
	if stats.ImageClips != 1 {
		t.Fatalf("expected 1 image, got %d", stats.ImageClips)
	}
	if stats.TotalSize != 5+5+1024 {
		t.Fatalf("unexpected total size %d", stats.TotalSize)
	}
	if stats.Oldest == nil || stats.Newest == nil {
		t.Fatalf("expected timestamps, got %+v", stats)
	}
}

func TestTouchUpdatesTimestamp(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	now := base
	db := newTestDB(t)
	storage, err := New(Config{
		Database: db,
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}

	ctx := context.Background()
	clip := mustInsert(t, storage, textClip(t, "touch me"))

	now = base.Add(time.Minute)
	if err := storage.Touch(ctx, clip.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fetched, err := storage.GetByID(ctx, clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fetched.UpdatedAt.After(clip.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", clip.UpdatedAt, fetched.UpdatedAt)
	}
	if !fetched.CreatedAt.Equal(clip.CreatedAt) {
		t.Fatalf("touch must not move created_at: %v -> %v", clip.CreatedAt, fetched.CreatedAt)
	}
}

func TestTouchNonexistent(t *testing.T) {
	storage, _ := newTestStore(t)
	if err := storage.Touch(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnknownContentTypeDecodesAsText(t *testing.T) {
	storage, db := newTestStore(t)
	clip := mustInsert(t, storage, textClip(t, "mystery"))

	if err := db.Model(&Clip{}).Where("id = ?", clip.ID).Update("content_type", "hologram").Error; err != nil {
		t.Fatalf("failed to corrupt row: %v", err)
	}

	fetched, err := storage.GetByID(context.Background(), clip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.ContentType != ContentTypeText {
		t.Fatalf("unknown token should decode as text, got %q", fetched.ContentType)
	}
}

func TestNewRequiresDatabase(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected missing database to fail")
	}
}
