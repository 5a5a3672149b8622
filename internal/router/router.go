// Package router implements the HTTP dispatch table. Routes are
// registered as method plus path template, where ":name" segments become
// path parameters. Templates are compiled to regular expressions once at
// registration time; matching tries exact literal routes first, then
// parameterized routes in registration order. Handlers and route
// middleware are resolved lazily through the service locator.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/asterix1221/brawl-leaderboard-sub000/internal/constants"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/locator"
	"github.com/asterix1221/brawl-leaderboard-sub000/internal/models"
)

// Handler is implemented by request handlers registered with the router.
// Action returns the function for a named operation, or nil when the
// handler does not support it.
type Handler interface {
	Action(name string) http.HandlerFunc
}

// Middleware is route-scoped middleware resolved by service ID. Handle
// may enrich the request (returning a derived *http.Request) or
// short-circuit by writing a response and returning false.
type Middleware interface {
	Handle(w http.ResponseWriter, r *http.Request) (*http.Request, bool)
}

type paramsKey struct{}

// Param returns the named path parameter captured during routing, or an
// empty string.
func Param(r *http.Request, name string) string {
	if params, ok := r.Context().Value(paramsKey{}).(map[string]string); ok {
		return params[name]
	}
	return ""
}

var paramSegment = regexp.MustCompile(`:([a-zA-Z_][a-zA-Z0-9_]*)`)

type route struct {
	method        string
	template      string
	pattern       *regexp.Regexp
	paramNames    []string
	handlerID     string
	action        string
	middlewareIDs []string
}

// Router dispatches requests to locator-resolved handlers.
type Router struct {
	services *locator.Locator
	logger   *logrus.Logger

	// exact maps "METHOD path" for templates without parameters.
	exact map[string]*route
	// patterns holds parameterized routes in registration order.
	patterns []*route
}

// New creates an empty router backed by the given service locator.
func New(services *locator.Locator, logger *logrus.Logger) *Router {
	return &Router{
		services: services,
		logger:   logger,
		exact:    make(map[string]*route),
	}
}

// Register adds a route. The template may contain ":name" segments which
// are captured as path parameters. The handler and middleware IDs are
// resolved through the service locator on first dispatch. Registration
// panics on an invalid template; route tables are static and assembled
// at startup.
func (rt *Router) Register(method, template, handlerID, action string, middlewareIDs ...string) {
	r := &route{
		method:        method,
		template:      template,
		handlerID:     handlerID,
		action:        action,
		middlewareIDs: middlewareIDs,
	}

	if !strings.Contains(template, ":") {
		rt.exact[method+" "+template] = r
		return
	}

	matches := paramSegment.FindAllStringSubmatch(template, -1)
	for _, m := range matches {
		r.paramNames = append(r.paramNames, m[1])
	}

	escaped := regexp.QuoteMeta(template)
	// QuoteMeta leaves ":" and parameter names untouched, so the
	// parameter segments can be rewritten after escaping.
	expr := paramSegment.ReplaceAllString(escaped, `([^/]+)`)
	r.pattern = regexp.MustCompile("^" + expr + "$")

	rt.patterns = append(rt.patterns, r)
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	matched, params := rt.match(r.Method, r.URL.Path)
	if matched == nil {
		rt.writeError(w, models.NewNotFoundError("route not found"))
		return
	}

	if len(params) > 0 {
		r = r.WithContext(context.WithValue(r.Context(), paramsKey{}, params))
	}

	for _, id := range matched.middlewareIDs {
		mw, err := rt.resolveMiddleware(id)
		if err != nil {
			rt.logger.WithError(err).WithField("middleware", id).Error("Failed to resolve route middleware")
			rt.writeError(w, models.NewServerError("internal server error"))
			return
		}

		next, ok := mw.Handle(w, r)
		if !ok {
			return
		}
		r = next
	}

	handlerFunc, err := rt.resolveAction(matched)
	if err != nil {
		rt.logger.WithError(err).WithFields(logrus.Fields{
			"handler": matched.handlerID,
			"action":  matched.action,
		}).Error("Failed to resolve route handler")
		rt.writeError(w, models.NewServerError("internal server error"))
		return
	}

	handlerFunc(w, r)
}

func (rt *Router) match(method, path string) (*route, map[string]string) {
	if r, ok := rt.exact[method+" "+path]; ok {
		return r, nil
	}

	for _, r := range rt.patterns {
		if r.method != method {
			continue
		}
		groups := r.pattern.FindStringSubmatch(path)
		if groups == nil {
			continue
		}

		params := make(map[string]string, len(r.paramNames))
		for i, name := range r.paramNames {
			params[name] = groups[i+1]
		}
		return r, params
	}

	return nil, nil
}

func (rt *Router) resolveAction(r *route) (http.HandlerFunc, error) {
	service, err := rt.services.Resolve(r.handlerID)
	if err != nil {
		return nil, err
	}

	handler, ok := service.(Handler)
	if !ok {
		return nil, fmt.Errorf("service %q does not implement router.Handler", r.handlerID)
	}

	fn := handler.Action(r.action)
	if fn == nil {
		return nil, fmt.Errorf("handler %q has no action %q", r.handlerID, r.action)
	}
	return fn, nil
}

func (rt *Router) resolveMiddleware(id string) (Middleware, error) {
	service, err := rt.services.Resolve(id)
	if err != nil {
		return nil, err
	}

	mw, ok := service.(Middleware)
	if !ok {
		return nil, fmt.Errorf("service %q does not implement router.Middleware", id)
	}
	return mw, nil
}

func (rt *Router) writeError(w http.ResponseWriter, apiErr *models.APIError) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)

	response := models.NewErrorResponse(apiErr.Message, apiErr.StatusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		rt.logger.WithError(err).Error("Failed to encode error response")
	}
}
