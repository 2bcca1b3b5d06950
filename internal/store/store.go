package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opStoreNew       = "store.new"
	opOpen           = "store.open"
	opInsert         = "store.insert"
	opGetByID        = "store.get_by_id"
	opList           = "store.list"
	opSearch         = "store.search"
	opDelete         = "store.delete"
	opFindByHash     = "store.find_by_hash"
	opAddTag         = "store.add_tag"
	opRemoveTag      = "store.remove_tag"
	opSetPinned      = "store.set_pinned"
	opClearOlderThan = "store.clear_older_than"
	opStats          = "store.stats"
	opTouch          = "store.touch"
)

// Open establishes a SQLite connection for the clip database and performs
// schema migrations. Foreign keys are switched on so tag rows cascade with
// their owning clip, and a busy timeout bounds transient multi-process
// write contention.
func Open(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, newStoreError(opOpen, "open_failed", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, newStoreError(opOpen, "pool_failed", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Clip{}, &TagRow{}); err != nil {
		return nil, newStoreError(opOpen, "migrate_failed", err)
	}

	if logger != nil {
		logger.Info("clip database initialized", zap.String("path", path))
	}

	return db, nil
}

// Config carries the dependencies for a Store.
type Config struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Store is the durable, queryable persistence layer for clips and tags.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// New validates the configuration and returns a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError(opStoreNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// now returns the clock reading truncated to whole UTC seconds. Stored
// timestamps must stay lexicographically sortable in their text column,
// which variable-length fractional seconds would break.
func (s *Store) now() time.Time {
	return s.clock().UTC().Truncate(time.Second)
}

// Insert persists a new clip, assigning its id and timestamps, and returns
// the materialized row with an empty tag set. A duplicate fingerprint
// violates the hash uniqueness constraint and surfaces as a StoreError.
func (s *Store) Insert(ctx context.Context, newClip NewClip) (Clip, error) {
	now := s.now()
	row := Clip{
		ContentType: newClip.ContentType,
		TextContent: newClip.TextContent,
		ImagePath:   newClip.ImagePath,
		ImageWidth:  newClip.ImageWidth,
		ImageHeight: newClip.ImageHeight,
		Hash:        newClip.Hash,
		SizeBytes:   newClip.SizeBytes,
		Pinned:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.logError(opInsert, "create_failed", err, zap.String("hash", newClip.Hash))
		return Clip{}, newStoreError(opInsert, "create_failed", err)
	}

	return s.GetByID(ctx, row.ID)
}

// GetByID loads one clip with its full tag list. A miss is ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (Clip, error) {
	var clip Clip
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&clip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Clip{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		s.logError(opGetByID, "query_failed", err, zap.Int64("clip_id", id))
		return Clip{}, newStoreError(opGetByID, "query_failed", err)
	}

	clips := []Clip{clip}
	if err := s.hydrate(ctx, opGetByID, clips); err != nil {
		return Clip{}, err
	}
	return clips[0], nil
}

// List returns clips matching the filter, most recent id first. Supplied
// filter fields combine conjunctively; absent fields impose no constraint.
func (s *Store) List(ctx context.Context, filter ClipFilter) ([]Clip, error) {
	query := s.db.WithContext(ctx).Model(&Clip{})
	if filter.ContentType != nil {
		query = query.Where("content_type = ?", string(*filter.ContentType))
	}
	if filter.Pinned != nil {
		query = query.Where("pinned = ?", *filter.Pinned)
	}
	if filter.Tag != nil {
		// An EXISTS probe keeps multi-tagged clips from duplicating rows
		// the way a bare join against tags would.
		query = query.Where(
			"EXISTS (SELECT 1 FROM tags WHERE tags.clip_id = clips.id AND tags.tag = ?)",
			*filter.Tag,
		)
	}

	var clips []Clip
	err := query.
		Order("id DESC").
		Limit(int(filter.EffectiveLimit())).
		Offset(int(filter.Offset)).
		Find(&clips).Error
	if err != nil {
		s.logError(opList, "query_failed", err)
		return nil, newStoreError(opList, "query_failed", err)
	}

	if err := s.hydrate(ctx, opList, clips); err != nil {
		return nil, err
	}
	return clips, nil
}

// Search returns clips whose text content contains the query,
// case-insensitively, most recent id first, capped at limit. Clips with no
// text content never match.
func (s *Store) Search(ctx context.Context, queryText string, limit int64) ([]Clip, error) {
	query := s.db.WithContext(ctx).
		Where("text_content LIKE '%' || ? || '%' COLLATE NOCASE", queryText).
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(int(limit))
	}

	var clips []Clip
	if err := query.Find(&clips).Error; err != nil {
		s.logError(opSearch, "query_failed", err)
		return nil, newStoreError(opSearch, "query_failed", err)
	}

	if err := s.hydrate(ctx, opSearch, clips); err != nil {
		return nil, err
	}
	return clips, nil
}

// Delete removes a clip. The schema cascade removes its tag rows. Deleting
// a missing id is not an error; the boolean reports whether a row went away.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&Clip{}, id)
	if result.Error != nil {
		s.logError(opDelete, "delete_failed", result.Error, zap.Int64("clip_id", id))
		return false, newStoreError(opDelete, "delete_failed", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindByHash is the dedup probe: it returns the clip carrying the
// fingerprint, or nil when none exists. Absence is not an error.
func (s *Store) FindByHash(ctx context.Context, hash string) (*Clip, error) {
	var clip Clip
	err := s.db.WithContext(ctx).Where("hash = ?", hash).Take(&clip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logError(opFindByHash, "query_failed", err)
		return nil, newStoreError(opFindByHash, "query_failed", err)
	}

	clips := []Clip{clip}
	if err := s.hydrate(ctx, opFindByHash, clips); err != nil {
		return nil, err
	}
	return &clips[0], nil
}

// AddTag associates a tag with a clip. Adding an existing pair is a no-op.
func (s *Store) AddTag(ctx context.Context, clipID int64, tag string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&TagRow{ClipID: clipID, Tag: tag}).Error
	if err != nil {
		s.logError(opAddTag, "insert_failed", err, zap.Int64("clip_id", clipID), zap.String("tag", tag))
		return newStoreError(opAddTag, "insert_failed", err)
	}
	return nil
}

// RemoveTag dissociates a tag from a clip. Removing an absent pair is a no-op.
func (s *Store) RemoveTag(ctx context.Context, clipID int64, tag string) error {
	err := s.db.WithContext(ctx).
		Where("clip_id = ? AND tag = ?", clipID, tag).
		Delete(&TagRow{}).Error
	if err != nil {
		s.logError(opRemoveTag, "delete_failed", err, zap.Int64("clip_id", clipID), zap.String("tag", tag))
		return newStoreError(opRemoveTag, "delete_failed", err)
	}
	return nil
}

// SetPinned updates the pin flag and bumps updated_at. Updating a missing
// id affects zero rows and is tolerated.
func (s *Store) SetPinned(ctx context.Context, id int64, pinned bool) error {
	result := s.db.WithContext(ctx).Model(&Clip{}).
		Where("id = ?", id).
		Updates(map[string]any{"pinned": pinned, "updated_at": s.now()})
	if result.Error != nil {
		s.logError(opSetPinned, "update_failed", result.Error, zap.Int64("clip_id", id))
		return newStoreError(opSetPinned, "update_failed", result.Error)
	}
	return nil
}

// ClearOlderThan deletes every non-pinned clip whose updated_at precedes
// the cutoff and reports how many were removed. Pinned clips survive
// regardless of age.
func (s *Store) ClearOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("updated_at < ? AND pinned = ?", cutoff.UTC().Truncate(time.Second), false).
		Delete(&Clip{})
	if result.Error != nil {
		s.logError(opClearOlderThan, "delete_failed", result.Error)
		return 0, newStoreError(opClearOlderThan, "delete_failed", result.Error)
	}
	return result.RowsAffected, nil
}

// Stats returns the aggregate projection over the whole store.
func (s *Store) Stats(ctx context.Context) (StorageStats, error) {
	var counts struct {
		TotalClips   int64
		TextClips    int64
		ImageClips   int64
		FileRefClips int64
		TotalSize    int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_clips,
		       COUNT(CASE WHEN content_type = 'text' THEN 1 END) AS text_clips,
		       COUNT(CASE WHEN content_type = 'image' THEN 1 END) AS image_clips,
		       COUNT(CASE WHEN content_type = 'fileref' THEN 1 END) AS file_ref_clips,
		       COALESCE(SUM(size_bytes), 0) AS total_size
		FROM clips`).Scan(&counts).Error
	if err != nil {
		s.logError(opStats, "aggregate_failed", err)
		return StorageStats{}, newStoreError(opStats, "aggregate_failed", err)
	}

	stats := StorageStats{
		TotalClips:   counts.TotalClips,
		TextClips:    counts.TextClips,
		ImageClips:   counts.ImageClips,
		FileRefClips: counts.FileRefClips,
		TotalSize:    counts.TotalSize,
	}

	if counts.TotalClips > 0 {
		var oldest, newest Clip
		if err := s.db.WithContext(ctx).Order("created_at ASC").First(&oldest).Error; err != nil {
			s.logError(opStats, "oldest_failed", err)
			return StorageStats{}, newStoreError(opStats, "oldest_failed", err)
		}
		if err := s.db.WithContext(ctx).Order("created_at DESC").First(&newest).Error; err != nil {
			s.logError(opStats, "newest_failed", err)
			return StorageStats{}, newStoreError(opStats, "newest_failed", err)
		}
		stats.Oldest = &oldest.CreatedAt
		stats.Newest = &newest.CreatedAt
	}

	return stats, nil
}

// Touch advances updated_at to now, marking the clip as freshly used.
// Unlike SetPinned, a missing id is ErrNotFound: silently touching nothing
// would mask a bug in the caller.
func (s *Store) Touch(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Model(&Clip{}).
		Where("id = ?", id).
		Update("updated_at", s.now())
	if result.Error != nil {
		s.logError(opTouch, "update_failed", result.Error, zap.Int64("clip_id", id))
		return newStoreError(opTouch, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// hydrate attaches the full tag list to each loaded clip and normalizes
// lenient content-type tokens. Tag aggregation is a separate query so it
// stays independent of any tag filter the caller applied.
func (s *Store) hydrate(ctx context.Context, operation string, clips []Clip) error {
	for i := range clips {
		clips[i].ContentType = clips[i].ContentType.canonical()
	}

	if len(clips) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(clips))
	for _, clip := range clips {
		ids = append(ids, clip.ID)
	}

	var rows []TagRow
	err := s.db.WithContext(ctx).
		Where("clip_id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		s.logError(operation, "tag_query_failed", err)
		return newStoreError(operation, "tag_query_failed", err)
	}

	tagsByClip := make(map[int64][]string, len(clips))
	for _, row := range rows {
		tagsByClip[row.ClipID] = append(tagsByClip[row.ClipID], row.Tag)
	}
	for i := range clips {
		clips[i].Tags = tagsByClip[clips[i].ID]
	}
	return nil
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("clip store error", attrs...)
}
