package urlfilter

// DefaultExtensions is the garbage-extension denylist used when the
// configuration does not provide one. A URL whose path ends with one of these
// suffixes (with or without a trailing slash) is never fetched: it cannot
// contain an HTML page with email addresses.
var DefaultExtensions = []string{
	// Images
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".svg", ".svgz",
	".webp", ".ico", ".heic", ".avif", ".psd", ".eps", ".raw",

	// Archives and packages
	".zip", ".rar", ".7z", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".iso",
	".dmg", ".exe", ".msi", ".apk", ".deb", ".rpm", ".jar", ".bin",

	// Stylesheets and scripts
	".css", ".js", ".mjs", ".map",

	// Audio and video
	".mp3", ".wav", ".ogg", ".oga", ".flac", ".aac", ".m4a", ".wma",
	".mp4", ".m4v", ".mov", ".avi", ".wmv", ".flv", ".mkv", ".webm",
	".mpg", ".mpeg", ".3gp", ".swf",

	// Fonts
	".woff", ".woff2", ".ttf", ".otf", ".eot",

	// Documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".odt",
	".ods", ".odp", ".rtf", ".csv", ".epub",

	// Data feeds
	".xml", ".rss", ".atom", ".json",
}
