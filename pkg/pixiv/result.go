package pixiv

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is a raw API response. The API responses are not typed,
// values can be read by a GJSON path, see Get, or the whole body can be decoded, see Decode.
type Result struct {
	body       []byte
	statusCode int
	header     http.Header
}

// Bytes returns the response body.
func (r *Result) Bytes() []byte {
	return r.body
}

func (r *Result) String() string {
	return string(r.body)
}

// Get returns a value by the GJSON path, for example "response.0.title".
func (r *Result) Get(path string) gjson.Result {
	return gjson.GetBytes(r.body, path)
}

// Decode unmarshals the JSON body to the value.
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.body, v)
}

func (r *Result) StatusCode() int {
	return r.statusCode
}

func (r *Result) Header() http.Header {
	return r.header
}
