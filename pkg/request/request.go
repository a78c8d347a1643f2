// Package request turns a request shape into the final, possibly signed, URI.
package request

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/af-corp/googleapi/pkg/query"
	"github.com/af-corp/googleapi/pkg/signing"
	"github.com/af-corp/googleapi/pkg/validation"
)

// KeyParam carries the plain API key of unsigned requests.
const KeyParam = "key"

// ErrNilRequest is returned by Build when no request is given.
var ErrNilRequest = errors.New("request is required")

// Request is the capability set every API request shape provides.
type Request interface {
	validation.Validatable

	// API names the endpoint, e.g. "distancematrix".
	API() string
	// QueryParameters lists the populated fields in a stable order.
	QueryParameters() query.Params
	Credentials() signing.Credentials
}

// Builder assembles URIs. The zero value uses query.SensorOnly.
type Builder struct {
	Policy query.Policy
}

func (b Builder) policy() query.Policy {
	if b.Policy == nil {
		return query.SensorOnly
	}
	return b.Policy
}

// Build validates r, renders its parameters against baseURL and signs the result
// when r carries a client id. Nothing is built for an invalid request.
func (b Builder) Build(baseURL string, r Request) (*url.URL, error) {
	if r == nil {
		return nil, ErrNilRequest
	}
	if err := validation.Validate(r); err != nil {
		return nil, err
	}

	creds := r.Credentials()
	if err := creds.Check(); err != nil {
		return nil, err
	}

	params := r.QueryParameters()
	switch {
	case creds.Signed():
		params = b.policy().Redact(params)
	case creds.Key != "":
		params = params.Clone().Add(KeyParam, creds.Key)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", baseURL)
	}
	u.ForceQuery = false
	u.Fragment, u.RawFragment = "", ""
	if enc := params.Encode(); enc != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + enc
		} else {
			u.RawQuery = enc
		}
	}

	return signing.Sign(u, creds)
}

// Build uses the zero Builder.
func Build(baseURL string, r Request) (*url.URL, error) {
	return Builder{}.Build(baseURL, r)
}
