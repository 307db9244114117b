package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar attaches routes to the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version> with an API-only middleware
// chain. Probes and docs are mounted on the engine directly.
type Router struct {
	engine     *gin.Engine
	version    string
	chain      []gin.HandlerFunc
	registrars []RouteRegistrar
}

type Option func(*Router)

// WithAPIVersion overrides the default "v1" segment
func WithAPIVersion(version string) Option {
	return func(r *Router) { r.version = strings.Trim(version, "/") }
}

func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends middleware that only runs for API routes
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.chain = append(r.chain, mw...)
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

func (r *Router) BasePath() string {
	return "/api/" + r.version
}

// Setup creates the API group and mounts every registrar on it
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group(r.BasePath(), r.chain...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
	return api
}

// Routes returns the engine routes mounted under BasePath
func (r *Router) Routes() gin.RoutesInfo {
	prefix := r.BasePath() + "/"
	var out gin.RoutesInfo
	for _, route := range r.engine.Routes() {
		if strings.HasPrefix(route.Path, prefix) {
			out = append(out, route)
		}
	}
	return out
}

// Group is a route table declared up front and mounted at a path prefix.
// Nested groups inherit the prefix and middleware of their parent.
type Group struct {
	prefix   string
	chain    []gin.HandlerFunc
	routes   []route
	children []*Group
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewGroup(prefix string) *Group {
	return &Group{prefix: prefix}
}

func (g *Group) Use(mw ...gin.HandlerFunc) *Group {
	g.chain = append(g.chain, mw...)
	return g
}

func (g *Group) GET(path string, handlers ...gin.HandlerFunc) *Group {
	return g.add(http.MethodGet, path, handlers)
}

func (g *Group) POST(path string, handlers ...gin.HandlerFunc) *Group {
	return g.add(http.MethodPost, path, handlers)
}

func (g *Group) add(method, path string, handlers []gin.HandlerFunc) *Group {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}

// Group declares a nested group below g
func (g *Group) Group(prefix string) *Group {
	child := NewGroup(prefix)
	g.children = append(g.children, child)
	return child
}

func (g *Group) Prefix() string { return g.prefix }

func (g *Group) RegisterRoutes(rg *gin.RouterGroup) {
	mounted := rg.Group(g.prefix, g.chain...)
	for _, rt := range g.routes {
		mounted.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range g.children {
		child.RegisterRoutes(mounted)
	}
}
