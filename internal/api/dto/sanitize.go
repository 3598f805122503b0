package dto

import "github.com/microcosm-cc/bluemonday"

// ugcPolicy strips unsafe markup from user-authored content before it is
// rendered back to clients. Stored content stays raw; sanitization is a
// render-time concern.
var ugcPolicy = bluemonday.UGCPolicy()

func sanitize(content string) string {
	return ugcPolicy.Sanitize(content)
}
