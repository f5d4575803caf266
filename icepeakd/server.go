package main

import (
	"net/http"

	gojson "encoding/json"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/silky/icepeak/icepeak"
)

// newRouter builds icepeakd's HTTP surface: REST GET/PUT/DELETE at
// arbitrary paths, gzip-compressed, bearer-authenticated.
func newRouter(coordinator *icepeak.Coordinator, secret []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(authMiddleware(secret))

	router.GET("/*path", func(c *gin.Context) { handleGetOrSubscribe(c, coordinator) })
	router.PUT("/*path", func(c *gin.Context) { handlePut(c, coordinator) })
	router.DELETE("/*path", func(c *gin.Context) { handleDelete(c, coordinator) })

	return router
}

// requestPath turns gin's wildcard capture (which always includes the
// leading slash, e.g. "/a/b/c") into an icepeak.Path.
func requestPath(c *gin.Context) icepeak.Path {
	return icepeak.SplitPath(c.Param("path"))
}

func handleGetOrSubscribe(c *gin.Context, coordinator *icepeak.Coordinator) {
	path := requestPath(c)
	if !requirePath(c, path) {
		return
	}

	if isWebSocketUpgrade(c.Request) {
		serveWebSocket(c, coordinator, path)
		return
	}

	value, ok := coordinator.Value(path)
	writeValue(c, value, ok)
}

func handlePut(c *gin.Context, coordinator *icepeak.Coordinator) {
	path := requestPath(c)
	if !requirePath(c, path) {
		return
	}

	body, err := readBody(c)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	value, err := icepeak.UnmarshalValue(body)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	if err := coordinator.Modify(icepeak.NewPut(path, value)); err != nil {
		abortForModifyError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func handleDelete(c *gin.Context, coordinator *icepeak.Coordinator) {
	path := requestPath(c)
	if !requirePath(c, path) {
		return
	}

	if err := coordinator.Modify(icepeak.NewDelete(path)); err != nil {
		abortForModifyError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func readBody(c *gin.Context) ([]byte, error) {
	dec := gojson.NewDecoder(c.Request.Body)
	var raw gojson.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(icepeak.ErrClientInput, err.Error())
	}
	return raw, nil
}

func abortForModifyError(c *gin.Context, err error) {
	glog.Errorf("icepeak: modification failed: %v", err)
	c.AbortWithStatus(http.StatusInternalServerError)
}

// writeValue writes a 404 when the path has no value, 200 + the JSON
// value otherwise.
func writeValue(c *gin.Context, value icepeak.Value, ok bool) {
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	encoded, err := icepeak.MarshalValue(value)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", encoded)
}
