package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Request describes an outbound request relative to a client's base URL.
type Request struct {
	Method      string
	Path        string
	QueryParams url.Values
	Headers     map[string]string
	Body        []byte
}

// NewRequest creates a request.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:      method,
		Path:        path,
		QueryParams: make(url.Values),
		Headers:     make(map[string]string),
	}
}

// WithHeader sets a header.
func (r *Request) WithHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// WithQueryParam adds a query parameter.
func (r *Request) WithQueryParam(key, value string) *Request {
	r.QueryParams.Add(key, value)
	return r
}

// WithBody sets the request body.
func (r *Request) WithBody(body []byte) *Request {
	r.Body = body
	return r
}

// Build constructs the http.Request. An absolute Path is used as is;
// otherwise it is joined onto baseURL.
func (r *Request) Build(ctx context.Context, baseURL string) (*http.Request, error) {
	reqURL, err := r.resolve(baseURL)
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	for key, values := range r.QueryParams {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	reqURL.RawQuery = query.Encode()

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

func (r *Request) resolve(baseURL string) (*url.URL, error) {
	target, err := url.Parse(r.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid path %q", r.Path)
	}
	if target.IsAbs() {
		return target, nil
	}

	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL %q", baseURL)
	}
	if reqURL.Path == "" {
		reqURL.Path = "/" + strings.TrimLeft(target.Path, "/")
	} else {
		reqURL.Path = strings.TrimRight(reqURL.Path, "/") + "/" + strings.TrimLeft(target.Path, "/")
	}
	if target.RawQuery != "" {
		reqURL.RawQuery = target.RawQuery
	}
	return reqURL, nil
}
