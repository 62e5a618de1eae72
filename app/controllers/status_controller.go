package controllers

import (
	"net/http"
	"time"

	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/metadata"
)

var started = time.Now()

// DeclareStatus wires the health endpoint. The controller is route-only:
// plain handler funcs, no constructor, nothing in the container.
func DeclareStatus(r *metadata.Registry) {
	metadata.Controller("StatusController", "/status").
		Get("", health).
		Register(r)
}

func health(c *dispatch.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(started).Round(time.Second).String(),
	})
}
