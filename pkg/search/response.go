package search

import (
	"strconv"
	"strings"
)

type Response struct {
	Kind              string             `json:"kind"`
	URL               *URLTemplate       `json:"url,omitempty"`
	Queries           Queries            `json:"queries"`
	Context           *Context           `json:"context,omitempty"`
	SearchInformation *SearchInformation `json:"searchInformation,omitempty"`
	Spelling          *Spelling          `json:"spelling,omitempty"`
	Items             []Item             `json:"items,omitempty"`
}

type URLTemplate struct {
	Type     string `json:"type"`
	Template string `json:"template"`
}

type Queries struct {
	Request      []QueryInformation `json:"request,omitempty"`
	NextPage     []QueryInformation `json:"nextPage,omitempty"`
	PreviousPage []QueryInformation `json:"previousPage,omitempty"`
}

// Next returns the query that fetches the following page, if any.
func (q Queries) Next() (QueryInformation, bool) {
	if len(q.NextPage) == 0 {
		return QueryInformation{}, false
	}
	return q.NextPage[0], true
}

type Context struct {
	Title string `json:"title"`
}

type SearchInformation struct {
	SearchTime            float64 `json:"searchTime"`
	FormattedSearchTime   string  `json:"formattedSearchTime"`
	TotalResults          int64   `json:"totalResults,string"`
	FormattedTotalResults string  `json:"formattedTotalResults"`
}

type Spelling struct {
	CorrectedQuery     string `json:"correctedQuery"`
	HTMLCorrectedQuery string `json:"htmlCorrectedQuery"`
}

type Item struct {
	Kind             string     `json:"kind"`
	Title            string     `json:"title"`
	HTMLTitle        string     `json:"htmlTitle"`
	Link             string     `json:"link"`
	DisplayLink      string     `json:"displayLink"`
	Snippet          string     `json:"snippet"`
	HTMLSnippet      string     `json:"htmlSnippet"`
	CacheID          string     `json:"cacheId,omitempty"`
	FormattedURL     string     `json:"formattedUrl"`
	HTMLFormattedURL string     `json:"htmlFormattedUrl"`
	Mime             string     `json:"mime,omitempty"`
	FileFormat       string     `json:"fileFormat,omitempty"`
	Image            *ItemImage `json:"image,omitempty"`
}

type ItemImage struct {
	ContextLink     string `json:"contextLink"`
	Height          int64  `json:"height"`
	Width           int64  `json:"width"`
	ByteSize        int64  `json:"byteSize"`
	ThumbnailLink   string `json:"thumbnailLink"`
	ThumbnailHeight int64  `json:"thumbnailHeight"`
	ThumbnailWidth  int64  `json:"thumbnailWidth"`
}

// QueryInformation echoes the parameters of a query the API ran or suggests.
type QueryInformation struct {
	Title                  string `json:"title"`
	TotalResults           int64  `json:"totalResults,string,omitempty"`
	SearchTerms            string `json:"searchTerms"`
	Count                  int    `json:"count"`
	StartIndex             int    `json:"startIndex"`
	StartPage              int    `json:"startPage,omitempty"`
	Language               string `json:"language,omitempty"`
	InputEncoding          string `json:"inputEncoding,omitempty"`
	OutputEncoding         string `json:"outputEncoding,omitempty"`
	Safe                   string `json:"safe,omitempty"`
	Cx                     string `json:"cx,omitempty"`
	Cref                   string `json:"cref,omitempty"`
	Sort                   string `json:"sort,omitempty"`
	Filter                 string `json:"filter,omitempty"`
	GeoLocation            string `json:"gl,omitempty"`
	CountryRestrict        string `json:"cr,omitempty"`
	GoogleHost             string `json:"googleHost,omitempty"`
	DisableCnTwTranslation string `json:"disableCnTwTranslation,omitempty"`
	AndTerms               string `json:"hq,omitempty"`
	InterfaceLanguage      string `json:"hl,omitempty"`
	SiteSearch             string `json:"siteSearch,omitempty"`
	SiteSearchFilter       string `json:"siteSearchFilter,omitempty"`
	ExactTerms             string `json:"exactTerms,omitempty"`
	ExcludeTerms           string `json:"excludeTerms,omitempty"`
	LinkSite               string `json:"linkSite,omitempty"`
	OrTerms                string `json:"orTerms,omitempty"`
	RelatedSite            string `json:"relatedSite,omitempty"`
	DateRestrictRaw        string `json:"dateRestrict,omitempty"`
	LowRange               string `json:"lowRange,omitempty"`
	HighRange              string `json:"highRange,omitempty"`
	FileType               string `json:"fileType,omitempty"`
	Rights                 string `json:"rights,omitempty"`
	SearchType             string `json:"searchType,omitempty"`
	ImgSize                string `json:"imgSize,omitempty"`
	ImgType                string `json:"imgType,omitempty"`
	ImgColorType           string `json:"imgColorType,omitempty"`
	ImgDominantColor       string `json:"imgDominantColor,omitempty"`
}

// DateRestrictUnit is the period of a dateRestrict value.
type DateRestrictUnit string

const (
	Days   DateRestrictUnit = "d"
	Weeks  DateRestrictUnit = "w"
	Months DateRestrictUnit = "m"
	Years  DateRestrictUnit = "y"
)

// DateRestrict splits the "d[5]" form into its unit and count. ok is false when
// the value is absent or malformed.
func (q QueryInformation) DateRestrict() (unit DateRestrictUnit, n int, ok bool) {
	return ParseDateRestrict(q.DateRestrictRaw)
}

func ParseDateRestrict(s string) (DateRestrictUnit, int, bool) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", 0, false
	}
	unit := DateRestrictUnit(s[:open])
	switch unit {
	case Days, Weeks, Months, Years:
	default:
		return "", 0, false
	}
	n, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return unit, n, true
}

// FormatDateRestrict is the inverse of ParseDateRestrict.
func FormatDateRestrict(unit DateRestrictUnit, n int) string {
	return string(unit) + "[" + strconv.Itoa(n) + "]"
}
