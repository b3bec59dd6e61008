package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"io"
	"k8s.io/klog/v2"
	"modbusbridge/cmd/modbusbridge/config"
	"modbusbridge/pkg/apis"
	"modbusbridge/pkg/apis/response"
	"modbusbridge/pkg/broker"
	"modbusbridge/pkg/protocol/modbus/worker"
	v1 "modbusbridge/pkg/v1"
	"net/http"
	"strings"
	"time"
)

type componentInfo struct {
	Name   string   `json:"name"`
	Unit   string   `json:"unit"`
	Status string   `json:"status"`
	IDs    []string `json:"ids"`
}

func InstallHandler(group *gin.RouterGroup, c *config.Config) {
	group.GET("/components", listComponents(c))
	group.GET("/components/:component", getComponent(c))
	group.GET("/components/:component/*id", getComponent(c))
	group.PUT("/components/:component", setComponent(c))
	group.PUT("/components/:component/*id", setComponent(c))
}

func listComponents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		router := cfg.DeviceMgr.Router()
		names := router.Components()
		infos := make([]componentInfo, 0, len(names))
		for _, name := range names {
			rt, _ := router.Route(name)
			info := componentInfo{Name: name, Unit: rt.Unit, IDs: rt.IDs()}
			if u, ok := cfg.DeviceMgr.Unit(rt.Unit); ok {
				info.Status = u.Status().String()
			}
			infos = append(infos, info)
		}
		c.JSON(http.StatusOK, infos)
	}
}

func getComponent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		component, id := target(c)
		timeout := apis.DefaultReplyTimeout
		if raw := c.Query(apis.Timeout); len(raw) > 0 {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 || d > apis.MaxReplyTimeout {
				c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInvalidTimeout(raw)))
				return
			}
			timeout = d
		}

		topic, ch, cancel := cfg.Replies.Await()
		defer cancel()
		ctx, cancelCtx := context.WithTimeout(c.Request.Context(), timeout)
		defer cancelCtx()

		if err := cfg.DeviceMgr.Router().Get(ctx, component, id, topic); err != nil {
			commandError(c, component, id, err)
			return
		}
		payload, err := broker.Wait(ctx, ch)
		if err != nil {
			klog.V(3).InfoS("No reply for get", "component", component, "id", id, "timeout", timeout)
			c.JSON(http.StatusGatewayTimeout, response.NewMultiError(response.ErrReplyTimeout(component)))
			return
		}
		c.Data(http.StatusOK, binding.MIMEJSON, payload)
	}
}

func setComponent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		component, id := target(c)
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			klog.V(2).InfoS("Failed to get request body", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrRequestBody))
			return
		}

		router := cfg.DeviceMgr.Router()
		if len(id) == 0 && isArray(body) {
			values, err := decodeActions(body)
			if err != nil {
				klog.V(2).InfoS("Failed to parse actions", "component", component, "err", err)
				c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
				return
			}
			err = router.SetMany(component, values)
		} else {
			err = router.SetPayload(component, id, body)
		}
		if err != nil {
			commandError(c, component, id, err)
			return
		}
		c.Status(http.StatusAccepted)
	}
}

func target(c *gin.Context) (component, id string) {
	return c.Param("component"), strings.Trim(c.Param("id"), "/")
}

func isArray(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeActions turns [{"name":id,"value":x},...] into the id map SetMany
// takes. Numbers stay json.Number so integers keep their precision.
func decodeActions(body []byte) (map[string]interface{}, error) {
	var actions []v1.Action
	d := json.NewDecoder(bytes.NewReader(body))
	d.UseNumber()
	if err := d.Decode(&actions); err != nil {
		return nil, err
	}
	values := make(map[string]interface{}, len(actions))
	for _, a := range actions {
		if err := binding.Validator.ValidateStruct(&a); err != nil {
			return nil, err
		}
		if a.Value == nil {
			return nil, apis.ErrInvalidValue
		}
		values[a.Name] = a.Value
	}
	return values, nil
}

func commandError(c *gin.Context, component, id string, err error) {
	switch {
	case errors.Is(err, broker.ErrUnknownComponent):
		c.JSON(http.StatusNotFound, response.NewMultiError(response.ErrComponentNotFound(component)))
	case errors.Is(err, broker.ErrUnknownID):
		c.JSON(http.StatusNotFound, response.NewMultiError(response.ErrRegisterNotFound(id)))
	case errors.Is(err, worker.ErrQueueFull):
		c.JSON(http.StatusServiceUnavailable, response.NewMultiError(response.ErrCommandRejected(err)))
	default:
		c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrCommandRejected(err)))
	}
}
