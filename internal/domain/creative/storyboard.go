package creative

import (
	"sort"
	"time"
)

// PanelStatus tracks the review state of a storyboard panel.
type PanelStatus string

const (
	PanelDraft         PanelStatus = "draft"
	PanelApproved      PanelStatus = "approved"
	PanelNeedsRevision PanelStatus = "needs_revision"
)

// StoryboardPanel is one scene unit of the storyboard.
type StoryboardPanel struct {
	SceneNumber         int         `json:"scene_number"`
	Description         string      `json:"description"`
	DurationSeconds     int         `json:"duration_seconds"`
	CameraNotes         string      `json:"camera_notes,omitempty"`
	VisualReferencePath string      `json:"visual_reference_path,omitempty"`
	QualityScore        float64     `json:"quality_score,omitempty"`
	Status              PanelStatus `json:"status"`
}

// SortPanels orders panels ascending by scene number. Panels may be produced
// by concurrent generation in completion order; storage order must follow
// scene numbering.
func SortPanels(panels []StoryboardPanel) {
	sort.Slice(panels, func(i, j int) bool {
		return panels[i].SceneNumber < panels[j].SceneNumber
	})
}

// ShotStatus tracks the lifecycle of a generated video shot.
type ShotStatus string

const (
	ShotProcessing ShotStatus = "processing"
	ShotCompleted  ShotStatus = "completed"
	ShotFailed     ShotStatus = "failed"
)

// ShotAsset is one generated video clip corresponding to a storyboard panel.
type ShotAsset struct {
	SceneNumber  int            `json:"scene_number"`
	Prompt       string         `json:"prompt"`
	Provider     string         `json:"provider"`
	JobID        string         `json:"job_id,omitempty"`
	VideoURL     string         `json:"video_url,omitempty"`
	AssetPath    string         `json:"asset_path,omitempty"`
	Status       ShotStatus     `json:"status"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// RenderManifest describes the assembled master render.
type RenderManifest struct {
	MasterPath      string   `json:"master_path"`
	DurationSeconds int      `json:"duration_seconds"`
	ShotCount       int      `json:"shot_count"`
	Sources         []string `json:"sources"`
	Status          string   `json:"status"` // "assembling" or "ready"
}

// QCStatus tracks preview quality-control review.
type QCStatus string

const (
	QCPending       QCStatus = "pending"
	QCApproved      QCStatus = "approved"
	QCNeedsRevision QCStatus = "needs_revision"
	QCRejected      QCStatus = "rejected"
)

// PreviewRecord captures preview generation and its QC outcome.
type PreviewRecord struct {
	PreviewURL   string     `json:"preview_url,omitempty"`
	PreviewPath  string     `json:"preview_path,omitempty"`
	QualityScore float64    `json:"quality_score"`
	QCStatus     QCStatus   `json:"qc_status"`
	QCNotes      string     `json:"qc_notes,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ValidationRecord captures the final pre-distribution validation.
type ValidationRecord struct {
	Status        string           `json:"validation_status"` // "approved" or "rejected"
	Notes         string           `json:"validation_notes,omitempty"`
	QualityChecks []map[string]any `json:"quality_checks,omitempty"`
	ValidatedAt   time.Time        `json:"validated_at"`
}

// DistributionRecord logs one delivery of the final assets to a channel.
type DistributionRecord struct {
	Channel   string         `json:"channel"` // "storage", "webhook", "manual"
	Status    string         `json:"status"`  // "pending", "completed", "failed"
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
