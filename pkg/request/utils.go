package request

import (
	"fmt"
	"net/url"

	"github.com/spf13/cast"
)

func cloneURLValues(in url.Values) (out url.Values) {
	out = make(url.Values, len(in))
	for k, values := range in {
		out[k] = append([]string(nil), values...)
	}
	return out
}

func castToString(v any) string {
	str, err := cast.ToStringE(v)
	if err != nil {
		panic(fmt.Errorf(`cannot cast %T to string: %w`, v, err))
	}
	return str
}
