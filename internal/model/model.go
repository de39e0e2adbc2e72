// Package model defines the notly workspace entities.
//
// Timestamps are millisecond epoch values throughout, matching the wire
// format of the bundle archive and the app database.
package model

import "time"

// Project is the root of a workspace. It owns zero or more boards;
// deleting a project cascades to its boards.
type Project struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
	Color         string `json:"color,omitempty"`
	Settings      string `json:"settings,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// Board is one canvas unit within a project. Snapshot is the canvas
// engine's serialized document, owned exclusively by the board. It embeds
// asset and card references by value, not by foreign key.
type Board struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId,omitempty"`
	ParentBoardID string `json:"parentBoardId,omitempty"`
	Title         string `json:"title"`
	Position      int    `json:"position"`
	Snapshot      string `json:"tldrawSnapshot,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// Card is a standalone note entity. Cards are referenced from board
// snapshots via embedded identifiers; a card may have zero referencing
// boards or many.
type Card struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
	Color       string `json:"color,omitempty"`
	IsHidden    bool   `json:"isHidden"`
	WordCount   int    `json:"wordCount"`
	Metadata    string `json:"metadata,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// FileEntry is the durable registry row behind an imported binary asset.
// FilePath is the relative path under the asset root.
type FileEntry struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	FilePath      string `json:"filePath"`
	FileType      string `json:"fileType"`
	FileSize      int64  `json:"fileSize,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
	ImportMode    string `json:"importMode"`
	Metadata      string `json:"metadata,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}

// Tag is a workspace-level label that can be attached to cards.
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	Position  int    `json:"position"`
	CreatedAt int64  `json:"createdAt"`
}

// DefaultContentType is the content type assigned to new cards.
const DefaultContentType = "tiptap"

// NowMillis returns the current time as millisecond epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
