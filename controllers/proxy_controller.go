package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Jmdec/ipponyari-sub001/middlewares"
	"github.com/Jmdec/ipponyari-sub001/pkg/resp"
	"github.com/Jmdec/ipponyari-sub001/upstream"
	"github.com/Jmdec/ipponyari-sub001/utils"
	"github.com/gin-gonic/gin"
)

type BodyKind int

const (
	BodyJSON BodyKind = iota
	BodyForm // multipart passthrough (image uploads)
)

// Resource describes one origin-backed collection. Every resource handler is
// generated from this, so auth forwarding, timeouts and error translation
// behave identically across products, chefs, blogs, orders and the rest.
type Resource struct {
	Path        string   // origin path prefix, e.g. "/api/products"
	Methods     []string // verbs exposed on the proxy
	Public      []string // verbs that skip the bearer gate
	BodyKind    BodyKind
	FlattenList bool // unwrap {data, pagination} on list
}

func (r Resource) publicVerb(verb string) bool {
	for _, v := range r.Public {
		if v == verb {
			return true
		}
	}
	return false
}

type ProxyController struct {
	Client *upstream.Client
	Res    Resource

	// AfterCreate runs after a successful create, outside the error path.
	// Used for checkout side effects (cart clearing, notifications).
	AfterCreate func(c *gin.Context, status int, body json.RawMessage)
}

func NewProxyController(client *upstream.Client, res Resource) *ProxyController {
	return &ProxyController{Client: client, Res: res}
}

// Register wires the resource's verbs onto a route group, inserting the
// bearer gate everywhere the resource is not public.
func (pc *ProxyController) Register(rg *gin.RouterGroup) {
	for _, m := range pc.Res.Methods {
		switch m {
		case http.MethodGet:
			rg.GET("", pc.chain(m, pc.List)...)
			rg.GET("/:id", pc.chain(m, pc.Detail)...)
		case http.MethodPost:
			rg.POST("", pc.chain(m, pc.Create)...)
		case http.MethodPut:
			rg.PUT("/:id", pc.chain(m, pc.Update)...)
		case http.MethodPatch:
			rg.PATCH("/:id", pc.chain(m, pc.Update)...)
		case http.MethodDelete:
			rg.DELETE("/:id", pc.chain(m, pc.Delete)...)
		}
	}
}

func (pc *ProxyController) chain(verb string, h gin.HandlerFunc) []gin.HandlerFunc {
	if pc.Res.publicVerb(verb) {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{middlewares.RequireBearer(), h}
}

func (pc *ProxyController) List(c *gin.Context) {
	raw, status, err := pc.Client.Do(c.Request.Context(), upstream.Request{
		Method:        http.MethodGet,
		Path:          pc.Res.Path,
		RawQuery:      c.Request.URL.RawQuery,
		Authorization: utils.BearerHeader(c),
	})
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	if pc.Res.FlattenList {
		raw = upstream.UnwrapList(raw)
	}
	respondRaw(c, status, raw)
}

func (pc *ProxyController) Detail(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		resp.BadRequest(c, "missing id")
		return
	}
	raw, status, err := pc.Client.Do(c.Request.Context(), upstream.Request{
		Method:        http.MethodGet,
		Path:          pc.Res.Path + "/" + id,
		RawQuery:      c.Request.URL.RawQuery,
		Authorization: utils.BearerHeader(c),
	})
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	respondRaw(c, status, raw)
}

func (pc *ProxyController) Create(c *gin.Context) {
	pc.write(c, http.MethodPost, pc.Res.Path, true)
}

func (pc *ProxyController) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		resp.BadRequest(c, "missing id")
		return
	}
	pc.write(c, c.Request.Method, pc.Res.Path+"/"+id, false)
}

func (pc *ProxyController) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		resp.BadRequest(c, "missing id")
		return
	}
	raw, status, err := pc.Client.Do(c.Request.Context(), upstream.Request{
		Method:        http.MethodDelete,
		Path:          pc.Res.Path + "/" + id,
		Authorization: utils.BearerHeader(c),
	})
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	respondRaw(c, status, raw)
}

// write forwards a mutating request. JSON bodies are buffered and checked
// before the network hop; multipart bodies stream through untouched so binary
// uploads are never re-encoded.
func (pc *ProxyController) write(c *gin.Context, method, path string, isCreate bool) {
	var body io.Reader
	contentType := c.GetHeader("Content-Type")

	if pc.Res.BodyKind == BodyForm && strings.HasPrefix(contentType, "multipart/form-data") {
		if c.Request.ContentLength == 0 {
			resp.BadRequest(c, "request body required")
			return
		}
		body = c.Request.Body
	} else {
		buf, err := io.ReadAll(c.Request.Body)
		if err != nil || len(bytes.TrimSpace(buf)) == 0 {
			resp.BadRequest(c, "request body required")
			return
		}
		if !json.Valid(buf) {
			resp.BadRequest(c, "body must be valid JSON")
			return
		}
		body = bytes.NewReader(buf)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	raw, status, err := pc.Client.Do(c.Request.Context(), upstream.Request{
		Method:        method,
		Path:          path,
		RawQuery:      c.Request.URL.RawQuery,
		Body:          body,
		ContentType:   contentType,
		Authorization: utils.BearerHeader(c),
	})
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	// side effects only on a real write; 3xx passthrough is not a create
	if isCreate && pc.AfterCreate != nil && status >= 200 && status < 300 {
		pc.AfterCreate(c, status, raw)
	}
	respondRaw(c, status, raw)
}

// respondRaw forwards the origin's JSON body unchanged with its status.
func respondRaw(c *gin.Context, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, "application/json", raw)
}

// writeUpstreamError maps the client's error taxonomy onto response codes:
// origin errors keep their status, timeouts and dead origins get their own
// codes so callers can tell "bad request" from "backend down".
func writeUpstreamError(c *gin.Context, err error) {
	var ue *upstream.Error
	switch {
	case errors.As(err, &ue):
		resp.Status(c, ue.Status, ue.Message)
	case errors.Is(err, upstream.ErrTimeout):
		resp.GatewayTimeout(c, "upstream timed out")
	case errors.Is(err, upstream.ErrUnreachable):
		resp.ServiceUnavailable(c, "service unavailable")
	case errors.Is(err, upstream.ErrMalformed):
		resp.BadGateway(c, "bad upstream response")
	default:
		log.Printf("proxy: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		resp.ServerError(c, "unexpected error")
	}
}
