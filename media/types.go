// media/types.go
package media

type AssetType string

const (
	AssetTypeUpload  AssetType = "upload"
	AssetTypeResult  AssetType = "result"
	AssetTypeArchive AssetType = "archive"
	AssetTypeUnknown AssetType = "unknown"
)

// Metadata holds the EXIF and dimension information extracted from an
// uploaded image. Only the fields the image record persists are kept.
type Metadata struct {
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
	TakenAt     *int64  `json:"taken_at,omitempty"` // Unix timestamp
}
