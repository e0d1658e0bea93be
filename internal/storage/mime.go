package storage

import (
	"mime"
	"path/filepath"
)

// The builtin mime table has no video types.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".ogv":  "video/ogg",
}

func init() {
	for ext, typ := range videoTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

func contentType(name string) string {
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
