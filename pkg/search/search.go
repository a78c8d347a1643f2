// Package search is the Google Custom Search JSON API request and response.
package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/validation"
)

const (
	API            = "search"
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

	MaxNumber  = 10
	MaxResults = 100
)

type SafetyLevel string

const (
	SafetyOff    SafetyLevel = "off"
	SafetyActive SafetyLevel = "active"
)

// Request is an immutable Custom Search query. Build one with NewRequest.
type Request struct {
	query    string
	engineID string

	number     int
	startIndex int

	safe             SafetyLevel
	geoLocation      string
	countryRestrict  string
	interfaceLang    string
	languageRestrict string
	siteSearch       string
	siteSearchFilter string
	exactTerms       string
	excludeTerms     string
	orTerms          string
	fileType         string
	searchType       string
	dateRestrict     string
	sort             string
	filter           *bool

	key string
}

type Option func(*Request)

// WithNumber sets how many results to return (1 to 10).
func WithNumber(n int) Option { return func(r *Request) { r.number = n } }

// WithStartIndex sets the 1-based index of the first result.
func WithStartIndex(i int) Option { return func(r *Request) { r.startIndex = i } }

func WithSafe(s SafetyLevel) Option { return func(r *Request) { r.safe = s } }

func WithGeoLocation(gl string) Option { return func(r *Request) { r.geoLocation = gl } }

func WithCountryRestrict(cr string) Option { return func(r *Request) { r.countryRestrict = cr } }

func WithInterfaceLanguage(hl string) Option { return func(r *Request) { r.interfaceLang = hl } }

func WithLanguageRestrict(lr string) Option { return func(r *Request) { r.languageRestrict = lr } }

// WithSiteSearch limits results to site, included ("i") or excluded ("e").
func WithSiteSearch(site, filter string) Option {
	return func(r *Request) {
		r.siteSearch = site
		r.siteSearchFilter = filter
	}
}

func WithExactTerms(s string) Option   { return func(r *Request) { r.exactTerms = s } }
func WithExcludeTerms(s string) Option { return func(r *Request) { r.excludeTerms = s } }
func WithOrTerms(s string) Option      { return func(r *Request) { r.orTerms = s } }
func WithFileType(s string) Option     { return func(r *Request) { r.fileType = s } }
func WithSearchType(s string) Option   { return func(r *Request) { r.searchType = s } }
func WithSort(s string) Option         { return func(r *Request) { r.sort = s } }

// WithDateRestrict takes the API form, e.g. "d[5]" for the past five days.
func WithDateRestrict(s string) Option { return func(r *Request) { r.dateRestrict = s } }

func WithFilter(v bool) Option { return func(r *Request) { r.filter = &v } }

// WithKey sets the API key. Custom Search has no premium signing.
func WithKey(key string) Option { return func(r *Request) { r.key = key } }

func NewRequest(q, engineID string, opts ...Option) Request {
	r := Request{query: q, engineID: engineID}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r Request) API() string { return API }

func (r Request) Query() string { return r.query }

func (r Request) Credentials() signing.Credentials {
	return signing.Credentials{Key: r.key}
}

func (r Request) RequiredFields() []validation.Field {
	return []validation.Field{
		validation.RequiredString("Query", r.query),
		validation.RequiredString("SearchEngineId", r.engineID),
	}
}

func (r Request) ConditionalRules() []validation.Rule {
	return []validation.Rule{
		validation.InRange("Number", r.number, r.number != 0, 1, MaxNumber),
		validation.Check("StartIndex", "StartIndex plus Number cannot exceed 100.", func() bool {
			n := r.number
			if n == 0 {
				n = MaxNumber
			}
			return r.startIndex == 0 || r.startIndex+n <= MaxResults
		}),
	}
}

func (r Request) QueryParameters() query.Params {
	var p query.Params
	p = p.Add("q", r.query)
	p = p.Add("cx", r.engineID)
	p = p.AddInt("num", r.number)
	p = p.AddInt("start", r.startIndex)
	p = p.AddIf("safe", string(r.safe))
	p = p.AddIf("gl", r.geoLocation)
	p = p.AddIf("cr", r.countryRestrict)
	p = p.AddIf("hl", r.interfaceLang)
	p = p.AddIf("lr", r.languageRestrict)
	p = p.AddIf("siteSearch", r.siteSearch)
	if r.siteSearch != "" {
		p = p.AddIf("siteSearchFilter", r.siteSearchFilter)
	}
	p = p.AddIf("exactTerms", r.exactTerms)
	p = p.AddIf("excludeTerms", r.excludeTerms)
	p = p.AddIf("orTerms", r.orTerms)
	p = p.AddIf("fileType", r.fileType)
	p = p.AddIf("searchType", r.searchType)
	p = p.AddIf("dateRestrict", r.dateRestrict)
	p = p.AddIf("sort", r.sort)
	if r.filter != nil {
		if *r.filter {
			p = p.Add("filter", "1")
		} else {
			p = p.Add("filter", "0")
		}
	}
	return p
}

// DecodeResponse parses a Custom Search JSON body. API errors come back as
// {"error": {...}} and are returned as *APIError.
func DecodeResponse(body []byte) (*Response, error) {
	var envelope struct {
		Response
		Error *APIError `json:"error,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return &envelope.Response, nil
}

// APIError is the error object Google APIs return instead of a result.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "search: %d", e.Code)
	if e.Status != "" {
		b.WriteString(" " + e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}
