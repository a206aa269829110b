package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// container detected from file contents, falling back to the extension
type Container struct {
	Extension   string
	ContentType string
}

// Identify sniffs the container of path. tag.Identify recognizes MP3, FLAC,
// OGG and MP4 family files; anything else falls back to the file extension.
func Identify(path string) Container {
	fallback := Container{
		Extension:   strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		ContentType: ContentTypeFromExtension(path),
	}

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil || fileType == tag.UnknownFileType {
		return fallback
	}

	switch fileType {
	case tag.MP3:
		return Container{Extension: "mp3", ContentType: "audio/mpeg"}
	case tag.FLAC:
		return Container{Extension: "flac", ContentType: "audio/flac"}
	case tag.OGG:
		return Container{Extension: "ogg", ContentType: "audio/ogg"}
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return Container{Extension: "m4a", ContentType: "audio/mp4"}
	default:
		return fallback
	}
}

// MIME type for common audio extensions, empty when unknown
func ContentTypeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".m4a", ".aac":
		return "audio/mp4"
	case ".webm":
		return "audio/webm"
	default:
		return ""
	}
}
