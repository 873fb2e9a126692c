package shareclient

import "time"

// Sort modes understood by the access endpoint.
const (
	SortCaptured = "captured"
	SortUploaded = "uploaded"
)

// ShareInfo is the public metadata of a share link, as served by
// GET /api/share/{token}/info.
type ShareInfo struct {
	IsPasswordProtected bool   `json:"is_password_protected"`
	AlbumID             uint   `json:"album_id"`
	AlbumTitle          string `json:"album_title"`
	AlbumDescription    string `json:"album_description"`
	CoverPhotoURL       string `json:"cover_photo_url"`
	PhotoCount          int64  `json:"photo_count"`
}

// SharedPhoto is one photo of a shared album.
type SharedPhoto struct {
	ID               uint       `json:"id"`
	ThumbnailPath    string     `json:"thumbnail_path"`
	WebPath          string     `json:"web_path"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	OriginalFilename string     `json:"original_filename"`
	CapturedAt       *time.Time `json:"captured_at"`
	CreatedAt        time.Time  `json:"created_at"`
	IsVideo          bool       `json:"is_video"`
}

// SharedAlbum is the album view returned by the access endpoint. When a
// protected link is accessed without a password, RequiresPassword is true and
// Photos is empty.
type SharedAlbum struct {
	ID                  uint           `json:"id"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	PhotoCount          int            `json:"photo_count"`
	Photos              []*SharedPhoto `json:"photos"`
	IsPasswordProtected bool           `json:"is_password_protected"`
	RequiresPassword    bool           `json:"requires_password"`
}
