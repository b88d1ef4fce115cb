package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/normalize"
)

type Route struct {
	ID         string
	Host       string
	PathPrefix string
	Policy     string
}

type Router struct {
	routes []Route
}

func NewRouter(cfg *config.Config) (*Router, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	routes := make([]Route, 0, len(cfg.Routes))
	for i, route := range cfg.Routes {
		routes = append(routes, Route{
			ID:         fmt.Sprintf("route-%d", i),
			Host:       strings.ToLower(strings.TrimSpace(route.Match.Host)),
			PathPrefix: normalize.EvaluatePath(route.Match.PathPrefix),
			Policy:     route.Policy,
		})
	}

	sort.SliceStable(routes, func(i, j int) bool {
		if len(routes[i].PathPrefix) == len(routes[j].PathPrefix) {
			return routes[i].ID < routes[j].ID
		}
		return len(routes[i].PathPrefix) > len(routes[j].PathPrefix)
	})

	return &Router{routes: routes}, nil
}

// Match evaluates the request path and finds the route whose prefix covers
// it. rest is the evaluated path below the prefix, without a leading slash.
// A path that ascends past the root matches nothing.
func (r *Router) Match(req *http.Request) (route Route, rest string, ok bool) {
	if req == nil || req.URL == nil {
		return Route{}, "", false
	}

	stack := normalize.PathStack(req.URL.Path, true)
	if !stack.IsAbsolute() {
		return Route{}, "", false
	}
	path := stack.String()
	host := strings.ToLower(stripPort(req.Host))

	for _, route := range r.routes {
		if route.Host != "" && route.Host != host {
			continue
		}
		if rest, ok := below(path, route.PathPrefix); ok {
			return route, rest, true
		}
	}

	return Route{}, "", false
}

func below(path, prefix string) (string, bool) {
	if prefix == normalize.RootMarker {
		return strings.TrimPrefix(path, normalize.RootMarker), true
	}
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix)+1:], true
	}
	return "", false
}

func stripPort(hostport string) string {
	if hostport == "" {
		return ""
	}

	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}

	return hostport
}
