package constants

import (
	"mime"
	"path/filepath"
	"strings"
)

// Extension families recognised by the import pipeline (lowercase, dot-prefixed).
var (
	DocumentExtensions = newExtSet(".pdf", ".docx", ".doc", ".txt", ".md", ".rst", ".html", ".htm", ".xlsx")
	ImageExtensions    = newExtSet(".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".svg")
	VideoExtensions    = newExtSet(".mp4", ".webm", ".mkv", ".avi", ".mov", ".wmv")
	CodeExtensions     = newExtSet(
		".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".c", ".cpp", ".h", ".hpp",
		".go", ".rs", ".rb", ".php", ".swift", ".kt", ".scala", ".sh", ".bash",
		".json", ".yaml", ".yml", ".xml", ".toml", ".ini", ".sql", ".css", ".scss",
	)
	// PlainTextExtensions are read as text even when no MIME type is known.
	PlainTextExtensions = newExtSet(".txt", ".md", ".rst", ".zsh", ".cfg", ".sass", ".less", ".r", ".lua")
)

// rasterExtensions excludes .svg, which has no pixel data to thumbnail.
var rasterExtensions = newExtSet(".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp")

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".rst":  "text/x-rst",
	".html": "text/html",
	".htm":  "text/html",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".py":   "text/x-python",
	".js":   "text/javascript",
	".ts":   "text/x-typescript",
	".java": "text/x-java",
	".c":    "text/x-c",
	".h":    "text/x-c",
	".cpp":  "text/x-c++",
	".hpp":  "text/x-c++",
	".go":   "text/x-go",
	".rs":   "text/x-rust",
	".sh":   "text/x-shellscript",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".sql":  "application/sql",
	".css":  "text/css",
}

// OctetStream is reported when no MIME type can be derived.
const OctetStream = "application/octet-stream"

type extSet map[string]struct{}

func newExtSet(exts ...string) extSet {
	s := make(extSet, len(exts))
	for _, e := range exts {
		s[e] = struct{}{}
	}
	return s
}

// Has reports whether ext (any case, with or without a dot) is in the set.
func (s extSet) Has(ext string) bool {
	_, ok := s[NormalizeExt(ext)]
	return ok
}

// NormalizeExt lowercases an extension and ensures it carries a leading dot.
// An empty input stays empty.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExtOf returns the normalized extension of a path or filename.
func ExtOf(path string) string {
	return NormalizeExt(filepath.Ext(path))
}

// IsSupported is the allowlist applied to directory imports.
func IsSupported(ext string) bool {
	return DocumentExtensions.Has(ext) || ImageExtensions.Has(ext) ||
		VideoExtensions.Has(ext) || CodeExtensions.Has(ext)
}

func IsImage(ext string) bool  { return ImageExtensions.Has(ext) }
func IsRaster(ext string) bool { return rasterExtensions.Has(ext) }
func IsVideo(ext string) bool  { return VideoExtensions.Has(ext) }

// IsTextExtractable reports whether text extraction should be attempted.
func IsTextExtractable(ext, mimeType string) bool {
	return DocumentExtensions.Has(ext) || CodeExtensions.Has(ext) ||
		PlainTextExtensions.Has(ext) || strings.HasPrefix(mimeType, "text/")
}

// MimeType guesses a MIME type from the file extension.
func MimeType(path string) string {
	ext := ExtOf(path)
	if ext == "" {
		return OctetStream
	}
	if m, ok := mimeTypes[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return BaseMime(m)
	}
	return OctetStream
}

// BaseMime strips parameters and lowercases a MIME type.
func BaseMime(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}
