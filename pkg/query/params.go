// Package query holds the ordered query-parameter list every request produces and
// the policies deciding which parameters survive URL signing.
package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Param is a single name/value pair.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list. Encode keeps insertion order so the same
// field values always produce the same query string.
type Params []Param

// Add appends name=value.
func (p Params) Add(name, value string) Params {
	return append(p, Param{Name: name, Value: value})
}

// AddIf appends name=value when value is non-empty.
func (p Params) AddIf(name, value string) Params {
	if value == "" {
		return p
	}
	return p.Add(name, value)
}

// AddBool appends name=true|false.
func (p Params) AddBool(name string, v bool) Params {
	return p.Add(name, strconv.FormatBool(v))
}

// AddInt appends name=v when v is non-zero.
func (p Params) AddInt(name string, v int) Params {
	if v == 0 {
		return p
	}
	return p.Add(name, strconv.Itoa(v))
}

// AddTime appends name=<unix seconds> when t is set.
func (p Params) AddTime(name string, t time.Time) Params {
	if t.IsZero() {
		return p
	}
	return p.Add(name, strconv.FormatInt(t.Unix(), 10))
}

// AddJoined appends name=v1|v2|... when values is non-empty.
func (p Params) AddJoined(name string, values []string) Params {
	if len(values) == 0 {
		return p
	}
	return p.Add(name, strings.Join(values, "|"))
}

// Get returns the first value for name.
func (p Params) Get(name string) (string, bool) {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

func (p Params) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

func (p Params) Len() int { return len(p) }

// Encode renders the list as a query string (without leading '?').
func (p Params) Encode() string {
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.Value))
	}
	return b.String()
}

// Clone returns a copy that can be appended to without touching p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}
