// Package module provides a small route module: a base path, a set of
// routes and metric rules that attach timers and size histograms to the
// routes they match.
package module

import (
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/wesleyorama2/routemeter/internal/instrument"
)

// Module groups routes under a base path.
//
// Example:
//
//	m := module.New("/test", binding)
//	if err := m.MetricForRequestTimeAndResponseSize("Action Request", "GET", "/"); err != nil {
//	    return err
//	}
//	m.Get("/action", actionHandler)
//	handler, err := m.Handler()
type Module struct {
	basePath string
	binding  *instrument.Binding
	routes   []route
	rules    []rule
}

type route struct {
	method  string
	path    string // full path including the base path
	handler http.Handler
}

// rule attaches measurements to every route whose method matches and whose
// path lies under pathPrefix.
type rule struct {
	name         string
	method       string
	pathPrefix   string // full path including the base path
	measurements []instrument.Measurement
}

// New creates a module serving routes below basePath.
func New(basePath string, binding *instrument.Binding) *Module {
	return &Module{
		basePath: cleanPath(basePath),
		binding:  binding,
	}
}

// BasePath returns the module's base path.
func (m *Module) BasePath() string {
	return m.basePath
}

// Get registers a GET route.
func (m *Module) Get(p string, h http.HandlerFunc) { m.Handle(http.MethodGet, p, h) }

// Put registers a PUT route.
func (m *Module) Put(p string, h http.HandlerFunc) { m.Handle(http.MethodPut, p, h) }

// Post registers a POST route.
func (m *Module) Post(p string, h http.HandlerFunc) { m.Handle(http.MethodPost, p, h) }

// Delete registers a DELETE route.
func (m *Module) Delete(p string, h http.HandlerFunc) { m.Handle(http.MethodDelete, p, h) }

// Handle registers h for method and a path relative to the base path.
// Registering the same method and path again replaces the handler.
func (m *Module) Handle(method, p string, h http.Handler) {
	r := route{
		method:  strings.ToUpper(method),
		path:    m.fullPath(p),
		handler: h,
	}
	for i := range m.routes {
		if m.routes[i].method == r.method && m.routes[i].path == r.path {
			m.routes[i] = r
			return
		}
	}
	m.routes = append(m.routes, r)
}

// MetricForRequestTime times every matching route with the timer name.
func (m *Module) MetricForRequestTime(name, method, pathPrefix string) error {
	return m.addRule(name, method, pathPrefix, instrument.RequestTime)
}

// MetricForRequestSize records request sizes of every matching route into
// the histogram name.
func (m *Module) MetricForRequestSize(name, method, pathPrefix string) error {
	return m.addRule(name, method, pathPrefix, instrument.RequestSize)
}

// MetricForResponseSize records response sizes of every matching route
// into the histogram name.
func (m *Module) MetricForResponseSize(name, method, pathPrefix string) error {
	return m.addRule(name, method, pathPrefix, instrument.ResponseSize)
}

// MetricForRequestTimeAndResponseSize times every matching route and
// records its response size, both under name.
func (m *Module) MetricForRequestTimeAndResponseSize(name, method, pathPrefix string) error {
	// Size is applied first so the timer wraps it.
	return m.addRule(name, method, pathPrefix, instrument.ResponseSize, instrument.RequestTime)
}

func (m *Module) addRule(name, method, pathPrefix string, ms ...instrument.Measurement) error {
	if _, err := m.binding.Context().Name(name); err != nil {
		return errors.Wrapf(err, "metric rule for %s %s", method, pathPrefix)
	}
	if strings.TrimSpace(method) == "" {
		return errors.Errorf("metric rule %q: method is required", name)
	}
	m.rules = append(m.rules, rule{
		name:         name,
		method:       strings.ToUpper(method),
		pathPrefix:   m.fullPath(pathPrefix),
		measurements: ms,
	})
	return nil
}

// Handler compiles the routes and metric rules into an http.Handler. Rules
// apply regardless of whether they were declared before or after the
// routes they match. HEAD requests served by a GET route are not measured.
func (m *Module) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	for _, r := range m.routes {
		h := r.handler
		matchedRules := 0
		for _, rl := range m.rules {
			if !rl.matches(r) {
				continue
			}
			matchedRules++
			for _, ms := range rl.measurements {
				var err error
				if h, err = m.binding.Apply(ms, rl.name, h); err != nil {
					return nil, errors.Wrapf(err, "route %s %s", r.method, r.path)
				}
			}
		}
		if r.method == http.MethodGet && matchedRules > 0 {
			// GET patterns also serve HEAD; those requests are not measured.
			h = skipHead(h, r.handler)
		}
		mux.Handle(r.method+" "+r.path, h)
	}
	return mux, nil
}

func skipHead(measured, plain http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodHead {
			plain.ServeHTTP(w, req)
			return
		}
		measured.ServeHTTP(w, req)
	})
}

func (rl rule) matches(r route) bool {
	if rl.method != r.method {
		return false
	}
	if rl.pathPrefix == "/" || r.path == rl.pathPrefix {
		return true
	}
	return strings.HasPrefix(r.path, rl.pathPrefix+"/")
}

func (m *Module) fullPath(p string) string {
	return cleanPath(path.Join(m.basePath, p))
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
