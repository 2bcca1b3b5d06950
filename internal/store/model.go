package store

import (
	"fmt"
	"strings"
	"time"
)

// ContentType enumerates the kinds of clipboard content a clip can hold.
type ContentType string

const (
	// ContentTypeText is plain text captured from the clipboard.
	ContentTypeText ContentType = "text"
	// ContentTypeImage is an image whose encoded bytes live in a side file.
	ContentTypeImage ContentType = "image"
	// ContentTypeFileRef is a reference to a file path on disk.
	ContentTypeFileRef ContentType = "fileref"
)

// ParseContentType maps a lowercase token to its ContentType.
func ParseContentType(raw string) (ContentType, bool) {
	switch ContentType(strings.TrimSpace(raw)) {
	case ContentTypeText:
		return ContentTypeText, true
	case ContentTypeImage:
		return ContentTypeImage, true
	case ContentTypeFileRef:
		return ContentTypeFileRef, true
	default:
		return "", false
	}
}

// canonical returns the variant itself. Tokens written by foreign or newer
// builds decode leniently as text rather than failing the whole row.
func (c ContentType) canonical() ContentType {
	if _, ok := ParseContentType(string(c)); !ok {
		return ContentTypeText
	}
	return c
}

// Clip models one persisted clipboard history entry.
type Clip struct {
	ID          int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentType ContentType `gorm:"column:content_type;size:16;not null" json:"content_type"`
	TextContent *string     `gorm:"column:text_content;type:text" json:"text_content,omitempty"`
	ImagePath   *string     `gorm:"column:image_path;type:text" json:"image_path,omitempty"`
	ImageWidth  *int        `gorm:"column:image_width" json:"image_width,omitempty"`
	ImageHeight *int        `gorm:"column:image_height" json:"image_height,omitempty"`
	Hash        string      `gorm:"column:hash;size:64;not null;uniqueIndex:idx_clips_hash" json:"hash"`
	SizeBytes   int64       `gorm:"column:size_bytes;not null" json:"size_bytes"`
	Pinned      bool        `gorm:"column:pinned;not null;default:false" json:"pinned"`
	CreatedAt   time.Time   `gorm:"column:created_at;not null;index:idx_clips_created_at;autoCreateTime:false;autoUpdateTime:false" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;not null;autoCreateTime:false;autoUpdateTime:false" json:"updated_at"`

	Tags []string `gorm:"-" json:"tags"`
}

// TableName provides the explicit table binding for GORM.
func (Clip) TableName() string {
	return "clips"
}

// TagRow is one (clip, tag) association. The pair is unique and the row is
// removed by the schema-level cascade when its owning clip is deleted.
type TagRow struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ClipID int64  `gorm:"column:clip_id;not null;uniqueIndex:idx_tags_clip_tag,priority:1;index:idx_tags_clip_id"`
	Tag    string `gorm:"column:tag;size:190;not null;uniqueIndex:idx_tags_clip_tag,priority:2;index:idx_tags_tag"`

	Clip Clip `gorm:"foreignKey:ClipID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (TagRow) TableName() string {
	return "tags"
}

// NewClip is the write-side projection of Clip. The store assigns id and
// timestamps at insert time; pinned starts false and tags start empty.
type NewClip struct {
	ContentType ContentType
	TextContent *string
	ImagePath   *string
	ImageWidth  *int
	ImageHeight *int
	Hash        string
	SizeBytes   int64
}

// NewTextClip builds a text NewClip carrying the raw captured text.
func NewTextClip(text, hash string, sizeBytes int64) (NewClip, error) {
	if err := validateFingerprint(hash); err != nil {
		return NewClip{}, err
	}
	if sizeBytes < 0 {
		return NewClip{}, fmt.Errorf("%w: negative size %d", ErrInvalidClip, sizeBytes)
	}
	return NewClip{
		ContentType: ContentTypeText,
		TextContent: &text,
		Hash:        hash,
		SizeBytes:   sizeBytes,
	}, nil
}

// NewImageClip builds an image NewClip pointing at an encoded side file.
// Dimensions are required so an image row can never miss them.
func NewImageClip(imagePath string, width, height int, hash string, sizeBytes int64) (NewClip, error) {
	if err := validateFingerprint(hash); err != nil {
		return NewClip{}, err
	}
	if strings.TrimSpace(imagePath) == "" {
		return NewClip{}, fmt.Errorf("%w: empty image path", ErrInvalidClip)
	}
	if width <= 0 || height <= 0 {
		return NewClip{}, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidClip, width, height)
	}
	if sizeBytes < 0 {
		return NewClip{}, fmt.Errorf("%w: negative size %d", ErrInvalidClip, sizeBytes)
	}
	return NewClip{
		ContentType: ContentTypeImage,
		ImagePath:   &imagePath,
		ImageWidth:  &width,
		ImageHeight: &height,
		Hash:        hash,
		SizeBytes:   sizeBytes,
	}, nil
}

// NewFileRefClip builds a file-reference NewClip. The referenced path is
// carried in the text column like any other textual payload.
func NewFileRefClip(path, hash string, sizeBytes int64) (NewClip, error) {
	if err := validateFingerprint(hash); err != nil {
		return NewClip{}, err
	}
	if strings.TrimSpace(path) == "" {
		return NewClip{}, fmt.Errorf("%w: empty file path", ErrInvalidClip)
	}
	if sizeBytes < 0 {
		return NewClip{}, fmt.Errorf("%w: negative size %d", ErrInvalidClip, sizeBytes)
	}
	return NewClip{
		ContentType: ContentTypeFileRef,
		TextContent: &path,
		Hash:        hash,
		SizeBytes:   sizeBytes,
	}, nil
}

func validateFingerprint(hash string) error {
	if strings.TrimSpace(hash) == "" {
		return fmt.Errorf("%w: empty fingerprint", ErrInvalidClip)
	}
	return nil
}

// DefaultListLimit bounds a listing whose filter does not supply a limit.
const DefaultListLimit int64 = 50

// ClipFilter narrows a listing. Nil fields impose no constraint; the
// supplied fields combine conjunctively.
type ClipFilter struct {
	ContentType *ContentType
	Pinned      *bool
	Tag         *string
	Limit       int64
	Offset      int64
}

// EffectiveLimit normalizes non-positive limits to DefaultListLimit.
func (f ClipFilter) EffectiveLimit() int64 {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// StorageStats is the aggregate projection over the whole store.
// Oldest and Newest are nil when the store is empty.
type StorageStats struct {
	TotalClips   int64      `json:"total_clips"`
	TextClips    int64      `json:"text_clips"`
	ImageClips   int64      `json:"image_clips"`
	FileRefClips int64      `json:"fileref_clips"`
	TotalSize    int64      `json:"total_size"`
	Oldest       *time.Time `json:"oldest,omitempty"`
	Newest       *time.Time `json:"newest,omitempty"`
}
