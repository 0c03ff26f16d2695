package goodreads

import "regexp"

// matches the size suffix of a thumbnail, ex. 106136930._SY75_.jpg
var thumbnailSuffix = regexp.MustCompile(`\._S[YX]\d+_\.`)

// RewriteCoverUrl strips thumbnail size suffixes from a cover url so that it
// points to the full size image.
func RewriteCoverUrl(coverUrl string) string {
	return thumbnailSuffix.ReplaceAllLiteralString(coverUrl, ".")
}
