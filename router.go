package ginblog

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Controller registers its routes on the group it is mounted on.
type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group  *gin.RouterGroup
	server *Server
}

func (s *Server) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	group := s.engine.Group(s.basePath+path, middleware...)
	return &ControllerGroup{group: group, server: s}
}

func (s *Server) RegisterController(path string, controller Controller, middleware ...gin.HandlerFunc) {
	controller.Register(s.Group(path, middleware...))
}

func (g *ControllerGroup) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group:  g.group.Group(path, middleware...),
		server: g.server,
	}
}

func (g *ControllerGroup) Use(middleware ...gin.HandlerFunc) {
	g.group.Use(middleware...)
}

func (g *ControllerGroup) BasePath() string {
	return g.group.BasePath()
}

func (g *ControllerGroup) GET(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodGet, path, handler, middleware)
}

func (g *ControllerGroup) POST(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPost, path, handler, middleware)
}

func (g *ControllerGroup) PUT(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPut, path, handler, middleware)
}

func (g *ControllerGroup) PATCH(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPatch, path, handler, middleware)
}

func (g *ControllerGroup) DELETE(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, path, handler, middleware)
}

func (g *ControllerGroup) OPTIONS(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodOptions, path, handler, middleware)
}

func (g *ControllerGroup) HEAD(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodHead, path, handler, middleware)
}

func (g *ControllerGroup) handle(method, path string, handler interface{}, middleware []gin.HandlerFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	handlers = append(handlers, g.wrapHandler(handler))
	g.group.Handle(method, path, handlers...)
}

var (
	contextType = reflect.TypeOf((*Context)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// wrapHandler adapts a typed handler to a gin.HandlerFunc. Supported forms
// take an optional *Context followed by an optional request value and return
// either (R, error) or error. Invalid signatures panic at registration.
func (g *ControllerGroup) wrapHandler(handler interface{}) gin.HandlerFunc {
	switch h := handler.(type) {
	case gin.HandlerFunc:
		return h
	case func(*gin.Context):
		return h
	case func(*Context):
		return func(c *gin.Context) {
			h(g.newContext(c))
		}
	}

	handlerValue := reflect.ValueOf(handler)
	handlerType := handlerValue.Type()
	if handlerType.Kind() != reflect.Func {
		panic(fmt.Sprintf("handler must be a function, got %s", handlerType))
	}

	numIn := handlerType.NumIn()
	if numIn > 2 {
		panic(fmt.Sprintf("handler %s takes too many arguments", handlerType))
	}
	hasContext := numIn > 0 && handlerType.In(0) == contextType
	var requestType reflect.Type
	switch {
	case numIn == 2 && !hasContext:
		panic(fmt.Sprintf("handler %s: first of two arguments must be *Context", handlerType))
	case numIn == 2:
		requestType = handlerType.In(1)
	case numIn == 1 && !hasContext:
		requestType = handlerType.In(0)
	}

	numOut := handlerType.NumOut()
	if numOut < 1 || numOut > 2 || handlerType.Out(numOut-1) != errorType {
		panic(fmt.Sprintf("handler %s must return (R, error) or error", handlerType))
	}

	return func(c *gin.Context) {
		ctx := g.newContext(c)
		args := make([]reflect.Value, 0, numIn)
		if hasContext {
			args = append(args, reflect.ValueOf(ctx))
		}
		if requestType != nil {
			request, err := bindRequest(ctx, requestType)
			if err != nil {
				ctx.SendError(err)
				return
			}
			args = append(args, request)
		}

		results := handlerValue.Call(args)
		if errValue := results[numOut-1]; !errValue.IsNil() {
			ctx.SendError(errValue.Interface().(error))
			return
		}
		if c.Writer.Written() || c.IsAborted() {
			return
		}
		if numOut == 1 {
			ctx.respond(EmptyResponse{})
			return
		}
		ctx.respond(results[0].Interface())
	}
}

func (g *ControllerGroup) newContext(c *gin.Context) *Context {
	var fileService FileService
	if g.server != nil {
		fileService = g.server.fileService
	}
	return NewContext(c, fileService)
}

func bindRequest(ctx *Context, requestType reflect.Type) (reflect.Value, error) {
	if requestType.Kind() == reflect.Ptr {
		request := reflect.New(requestType.Elem())
		if err := ctx.GetRequest(request.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return request, nil
	}
	request := reflect.New(requestType)
	if err := ctx.GetRequest(request.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return request.Elem(), nil
}
