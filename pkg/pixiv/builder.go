package pixiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umisama/go-regexpcache"

	"github.com/go-pixiv/pixiv/pkg/request"
)

const datePattern = `^\d{4}-\d{1,2}-\d{1,2}$`

// RequestBuilder defines a request to one API endpoint.
//
// It is created by an endpoint constructor, for example API.WorkRequest, with the endpoint default parameters.
// Each override method replaces exactly one parameter and returns a new RequestBuilder,
// the original value is never changed, so a partial chain can be reused.
type RequestBuilder struct {
	api    *API
	method string
	url    *url.URL
	header http.Header
	params Params
}

// NewRequestBuilder creates a RequestBuilder for an endpoint without a dedicated constructor.
// The path is resolved against the BaseURL, an absolute URL is used as it is.
// It panics if the URL is not valid.
func (a *API) NewRequestBuilder(method, path string, defaults ...Param) RequestBuilder {
	u, err := url.Parse(path)
	if err != nil {
		panic(fmt.Errorf(`url "%s" is not valid: %w`, path, err))
	}
	if u.RawQuery != "" {
		panic(fmt.Errorf(`url "%s" is not valid: query must be set by parameters`, path))
	}
	if !u.IsAbs() {
		u.Path = strings.TrimLeft(u.Path, "/")
		u.RawPath = strings.TrimLeft(u.RawPath, "/")
		u = a.baseURL.ResolveReference(u)
	}

	header := make(http.Header)
	header.Set("Referer", Referer)
	return RequestBuilder{
		api:    a,
		method: method,
		url:    u,
		header: header,
		params: Params{}.SeedDefaults(defaults),
	}
}

func (b RequestBuilder) Method() string {
	return b.method
}

// Params returns the current parameters, defaults merged with overrides.
func (b RequestBuilder) Params() Params {
	return b.params
}

// With sets a parameter which has no dedicated override method.
func (b RequestBuilder) With(key string, value any) RequestBuilder {
	param := P(key, value)
	return b.set(param.Key, param.Value)
}

func (b RequestBuilder) Page(page int) RequestBuilder {
	return b.set("page", strconv.Itoa(page))
}

// PerPage sets the page size.
// Older releases stored this under "value", which never overrode the per_page default.
func (b RequestBuilder) PerPage(perPage int) RequestBuilder {
	return b.set("per_page", strconv.Itoa(perPage))
}

// MaxID returns only works with a lower id, it is used to page the feeds.
func (b RequestBuilder) MaxID(maxID int) RequestBuilder {
	return b.set("max_id", strconv.Itoa(maxID))
}

func (b RequestBuilder) ImageSizes(sizes ...string) RequestBuilder {
	return b.set("image_sizes", strings.Join(sizes, ","))
}

func (b RequestBuilder) ProfileImageSizes(sizes ...string) RequestBuilder {
	return b.set("profile_image_sizes", strings.Join(sizes, ","))
}

func (b RequestBuilder) Publicity(publicity Publicity) RequestBuilder {
	return b.set("publicity", publicity.String())
}

func (b RequestBuilder) ShowR18(show bool) RequestBuilder {
	if show {
		return b.set("show_r18", "1")
	}
	return b.set("show_r18", "0")
}

func (b RequestBuilder) IncludeStats(include bool) RequestBuilder {
	return b.set("include_stats", strconv.FormatBool(include))
}

func (b RequestBuilder) IncludeSanityLevel(include bool) RequestBuilder {
	return b.set("include_sanity_level", strconv.FormatBool(include))
}

func (b RequestBuilder) RankingMode(mode RankingMode) RequestBuilder {
	return b.set("mode", mode.String())
}

// Date sets the ranking date in the "YYYY-M-D" format, for example "2018-2-22".
// It panics if the date is not valid, use ValidateDate to check a user input first.
func (b RequestBuilder) Date(date string) RequestBuilder {
	if err := ValidateDate(date); err != nil {
		panic(err)
	}
	return b.set("date", date)
}

func (b RequestBuilder) SearchPeriod(period SearchPeriod) RequestBuilder {
	return b.set("period", period.String())
}

func (b RequestBuilder) SearchMode(mode SearchMode) RequestBuilder {
	return b.set("mode", mode.String())
}

func (b RequestBuilder) SearchOrder(order SearchOrder) RequestBuilder {
	return b.set("order", order.String())
}

// SearchSort sets the sort key, the API accepts "date" and "popular".
func (b RequestBuilder) SearchSort(sort string) RequestBuilder {
	return b.set("sort", sort)
}

// SearchTypes filters work types, for example "illustration", "manga", "ugoira".
func (b RequestBuilder) SearchTypes(types ...string) RequestBuilder {
	return b.set("types", strings.Join(types, ","))
}

// Build returns the Request with parameters encoded to the URL query.
func (b RequestBuilder) Build() Request {
	u := *b.url
	u.RawQuery = b.params.Encode()
	return newRequest(b.method, &u, b.header)
}

// APIRequest converts the builder to a request.APIRequest, see API.ExecuteRequest.
func (b RequestBuilder) APIRequest() request.APIRequest[*Result] {
	return b.api.ExecuteRequest(b.Build())
}

// Send builds the request and executes it by the API.
func (b RequestBuilder) Send(ctx context.Context) (*Result, error) {
	return b.api.Execute(ctx, b.Build())
}

// SendOrErr implements request.Sendable, builders can be sent in parallel by request.Parallel.
func (b RequestBuilder) SendOrErr(ctx context.Context) error {
	_, err := b.Send(ctx)
	return err
}

func (b RequestBuilder) set(key, value string) RequestBuilder {
	b.params = b.params.Set(key, value)
	return b
}

// ValidateDate checks the "YYYY-M-D" format and that the date exists in the calendar.
func ValidateDate(date string) error {
	if !regexpcache.MustCompile(datePattern).MatchString(date) {
		return fmt.Errorf(`invalid date "%s": expected format YYYY-M-D`, date)
	}
	if _, err := time.Parse("2006-1-2", date); err != nil {
		return fmt.Errorf(`invalid date "%s": %w`, date, err)
	}
	return nil
}
