package router

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/akeren/wiwi-waitlist/pkg/ratelimit"
)

type routeKey struct {
	method string
	path   string
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanRoute(mountPoint),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts the controller under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanRoute(version + "/" + mountPoint),
		version:    version,
		prepare:    prepare,
	}
}

// cleanRoute yields an absolute path without a trailing slash, "/" for the root.
func cleanRoute(p string) string {
	return path.Clean("/" + strings.Trim(p, "/"))
}

func (controller *RESTController) route(relativePath string) string {
	return cleanRoute(controller.mountPoint + "/" + relativePath)
}

// addHandler registers a route. limiter may be nil to use the global limiter. Registering
// the same method and path twice is a programming error and panics.
func (routerService *RouterService) addHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares []MiddlewareFunc,
) {
	fullPath := controller.route(relativePath)
	key := routeKey{method: method, path: fullPath}

	if owner, taken := routerService.routes[key]; taken {
		panic(fmt.Sprintf("handler for %s %s is already registered by controller %q", method, fullPath, owner.name))
	}
	routerService.routes[key] = controller
	if limiter != nil {
		routerService.routeLimiters[key] = limiter
	}

	chain := make([]MiddlewareFunc, 0, len(middlewares)+1)
	chain = append(chain, middlewares...)
	chain = append(chain, createHandler(handler))
	routerService.engine.Handle(method, fullPath, chain...)

	controller.handlerCount++
	routerService.logger.Debug("Handler registered", "method", method, "path", fullPath, "scoped_limit", limiter != nil)
}

func (routerService *RouterService) AddPostHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodPost, controller, limiter, path, handler, middlewares)
}

func (routerService *RouterService) AddGetHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodGet, controller, limiter, path, handler, middlewares)
}

func (routerService *RouterService) AddDeleteHandler(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	path string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	routerService.addHandler(http.MethodDelete, controller, limiter, path, handler, middlewares)
}
