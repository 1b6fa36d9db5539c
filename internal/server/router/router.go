// Package router dispatches transport-neutral request events to handlers by
// method and path template, and turns handler errors into JSON responses.
package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Event is one inbound request, as delivered by Lambda or the local server.
type Event struct {
	Method                string
	Path                  string
	PathParameters        map[string]string
	QueryStringParameters map[string]string
	Headers               map[string]string
	Body                  string
}

// Response is the status, headers and body returned to the transport.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// HandlerFunc serves a matched Event. A returned error is rendered with
// ErrorResponse.
type HandlerFunc func(ctx context.Context, ev Event) (Response, error)

type route struct {
	method   string
	template string
	segments []string
	handler  HandlerFunc
}

// Router is built once at startup; Dispatch is safe for concurrent use once
// all routes are registered.
type Router struct {
	routes  []route
	log     logging.Logger
	metrics *metrics
}

// New returns an empty Router. Metrics are registered on reg; a nil reg
// leaves them unregistered.
func New(log logging.Logger, reg prometheus.Registerer) *Router {
	return &Router{
		log:     log.With("module", "router"),
		metrics: newMetrics(reg),
	}
}

// Handle registers h for method and template. Template segments written as
// {name} capture the (unescaped) path segment into Event.PathParameters.
func (r *Router) Handle(method, template string, h HandlerFunc) {
	r.routes = append(r.routes, route{
		method:   method,
		template: template,
		segments: splitPath(template),
		handler:  h,
	})
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// match reports whether path fits the route template and returns the
// captured parameters.
func (rt route) match(path []string) (map[string]string, bool) {
	if len(path) != len(rt.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range rt.segments {
		if isTemplate(seg) {
			// an unexpanded resource template matches but captures nothing
			if isTemplate(path[i]) {
				continue
			}
			v, err := url.PathUnescape(path[i])
			if err != nil || v == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:len(seg)-1]] = v
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

// Dispatch routes ev and always produces a Response: unknown paths get 404,
// known paths with another method get 405.
func (r *Router) Dispatch(ctx context.Context, ev Event) (resp Response) {
	start := time.Now()
	label := "unmatched"

	defer func() {
		if p := recover(); p != nil {
			r.log.Error(ctx, "handler panic", "method", ev.Method, "route", label, "panic", fmt.Sprint(p))
			resp = ErrorResponse(nil)
		}
		r.metrics.observe(label, ev.Method, resp.StatusCode, time.Since(start))
		r.log.Debug(ctx, "request handled",
			"method", ev.Method, "route", label, "status", resp.StatusCode, "duration", time.Since(start))
	}()

	path := splitPath(ev.Path)
	var allowed []string

	for _, rt := range r.routes {
		params, ok := rt.match(path)
		if !ok {
			continue
		}
		if !strings.EqualFold(rt.method, ev.Method) {
			allowed = append(allowed, rt.method)
			continue
		}

		label = rt.template
		ev.PathParameters = mergeParams(ev.PathParameters, params)

		out, err := rt.handler(ctx, ev)
		if err != nil {
			return ErrorResponse(err)
		}
		return out
	}

	if len(allowed) > 0 {
		resp = errorBody(http.StatusMethodNotAllowed, "method not allowed", nil)
		resp.Headers["Allow"] = strings.Join(allowed, ", ")
		return resp
	}
	return errorBody(http.StatusNotFound, "no route for "+ev.Method+" "+ev.Path, nil)
}

func isTemplate(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

// mergeParams adds captured values to the transport's path parameters.
// Values the transport already supplied win.
func mergeParams(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]string, len(dst)+len(src))
	for k, v := range src {
		out[k] = v
	}
	for k, v := range dst {
		out[k] = v
	}
	return out
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userreg_requests_total",
			Help: "Requests handled, by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userreg_request_duration_seconds",
			Help:    "Request handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *metrics) observe(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(d.Seconds())
}
