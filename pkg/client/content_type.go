package client

import (
	"mime"

	jsoniter "github.com/json-iterator/go"
	"github.com/umisama/go-regexpcache"
)

const (
	ContentTypeApplicationJSON       = "application/json"
	ContentTypeApplicationJSONRegexp = `^application/([a-zA-Z0-9\.\-]+\+)?json$`
)

// json decodes result and error responses.
var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// isJSONContentType matches "application/json" and "application/*+json", media type parameters are ignored.
func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return regexpcache.MustCompile(ContentTypeApplicationJSONRegexp).MatchString(mediaType)
}
