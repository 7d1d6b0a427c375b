// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/BartWaardenburg/spaceship-mcp/client"
	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/gin-gonic/gin"
)

// StatusOf maps an operation failure to the HTTP status returned to callers.
func StatusOf(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, client.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrOutOfScope):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// HandleWrap renders the handler result as JSON. A failure is rendered as
// {"error": ...} with the status from StatusOf.
func HandleWrap(handler func(c *gin.Context) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := handler(c)
		if err != nil {
			_ = c.Error(err)
			c.Data(StatusOf(err), "application/json", MarshalJSON(&struct {
				Error string `json:"error"`
			}{
				Error: DescribeError(err),
			}))
			return
		}
		if res == nil {
			res = struct{}{}
		}
		c.Data(http.StatusOK, "application/json", MarshalJSON(res))
	}
}

type ReqAlignment struct {
	Expected   []core.Record `json:"expected"`
	Types      []string      `json:"types"`
	IncludeTTL bool          `json:"includeTtl"`
}

type ReqCutover struct {
	Desired []core.Record `json:"desired"`
}

func bindJSON[T any](c *gin.Context, v *T) (*T, error) {
	b, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	return UnmarshalJSON(b, v)
}

func pageArgs(c *gin.Context) (take, skip int, err error) {
	if s := c.Query("take"); s != "" {
		take, err = strconv.Atoi(s)
		if err != nil {
			return 0, 0, err
		}
	}
	if s := c.Query("skip"); s != "" {
		skip, err = strconv.Atoi(s)
		if err != nil {
			return 0, 0, err
		}
	}
	return take, skip, nil
}

func NewRouter(app *App, route string) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.LoggerWithWriter(app.Logger.Writer()), gin.Recovery())

	v1 := engine.Group(path.Join("/", route, "v1"))

	v1.GET("/domains", HandleWrap(func(c *gin.Context) (any, error) {
		take, skip, err := pageArgs(c)
		if err != nil {
			return nil, err
		}
		if take > 0 {
			return app.Client.ListDomains(c.Request.Context(), take, skip)
		}
		return app.Client.ListAllDomains(c.Request.Context())
	}))

	v1.GET("/domains/:domain", HandleWrap(func(c *gin.Context) (any, error) {
		domain, err := RequireDomain(c.Param("domain"))
		if err != nil {
			return nil, err
		}
		return app.Client.GetDomain(c.Request.Context(), domain)
	}))

	v1.GET("/domains/:domain/records", HandleWrap(func(c *gin.Context) (any, error) {
		domain, err := RequireDomain(c.Param("domain"))
		if err != nil {
			return nil, err
		}
		take, skip, err := pageArgs(c)
		if err != nil {
			return nil, err
		}
		if take > 0 {
			return app.Client.ListDNSRecords(c.Request.Context(), domain, take, skip)
		}
		return app.Client.ListAllDNSRecords(c.Request.Context(), domain)
	}))

	v1.POST("/domains/:domain/alignment", HandleWrap(func(c *gin.Context) (any, error) {
		domain, err := RequireDomain(c.Param("domain"))
		if err != nil {
			return nil, err
		}
		req, err := bindJSON(c, &ReqAlignment{})
		if err != nil {
			return nil, err
		}
		return app.Alignment(c.Request.Context(), domain, req.Expected, core.AlignOptions{Types: req.Types, IncludeTTL: req.IncludeTTL})
	}))

	v1.POST("/domains/:domain/cutover", HandleWrap(func(c *gin.Context) (any, error) {
		domain, err := RequireDomain(c.Param("domain"))
		if err != nil {
			return nil, err
		}
		req, err := bindJSON(c, &ReqCutover{})
		if err != nil {
			return nil, err
		}
		return app.Cutover(c.Request.Context(), domain, req.Desired)
	}))

	v1.GET("/cache", HandleWrap(func(c *gin.Context) (any, error) {
		cache := app.Client.Cache
		return gin.H{
			"enabled":  cache.Enabled(),
			"entries":  cache.Len(),
			"hitRatio": cache.HitRatio(),
		}, nil
	}))

	return engine
}

// Serve exposes the operations as a REST API until ctx ends.
func Serve(ctx context.Context, app *App, addr string, route string) error {
	gin.SetMode(gin.ReleaseMode)

	s := http.Server{Addr: addr, Handler: NewRouter(app, route)}

	go func() {
		<-ctx.Done()
		app.Logger.Println("Shutting down")
		_ = s.Shutdown(context.Background())
	}()

	err := s.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
