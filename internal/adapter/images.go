package adapter

import (
	"fmt"
	"strings"
)

// NormalizeImageURL turns a provider image reference into an absolute URL.
//
//   - protocol-relative refs ("//host/x.jpg") get an https: scheme
//   - absolute http(s) refs are kept
//   - otherwise a non-empty imageID is expanded through cdnTemplate (one %s verb)
//   - with neither, the result is nil
func NormalizeImageURL(ref, imageID, cdnTemplate string) *string {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "//"):
		u := "https:" + ref
		return &u
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return &ref
	}

	imageID = strings.TrimSpace(imageID)
	if imageID != "" && cdnTemplate != "" {
		u := fmt.Sprintf(cdnTemplate, imageID)
		return &u
	}
	return nil
}
