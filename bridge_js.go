//go:build js
// +build js

package cblite

import (
	"github.com/gopherjs/gopherjs/js"
	"github.com/pkg/errors"
)

// windowBridge reads window.cblite at call time, since the plugin is only
// injected once the host environment reports readiness.
type windowBridge struct{}

var (
	_ Bridge     = windowBridge{}
	_ availabler = windowBridge{}
)

// WindowBridge returns the native bridge exposed by the Couchbase Lite
// PhoneGap/Cordova plugin as window.cblite.
func WindowBridge() Bridge {
	return windowBridge{}
}

func (windowBridge) plugin() *js.Object {
	return js.Global.Get("cblite")
}

func (b windowBridge) Available() bool {
	p := b.plugin()
	return p != js.Undefined && p != nil
}

func (b windowBridge) GetURL(callback func(string, error)) {
	b.plugin().Call("getURL", func(err, url *js.Object) {
		if err != nil && err != js.Undefined {
			callback("", errors.New(err.String()))
			return
		}
		callback(url.String(), nil)
	})
}

// ListenDeviceReady registers a listener for the DOM "deviceready" event
// which notifies c. Notification errors are logged with c's logger.
func ListenDeviceReady(c *Client) {
	js.Global.Get("document").Call("addEventListener", "deviceready", func() {
		if err := c.DeviceReady(); err != nil {
			c.log.Error("device ready notification failed", "error", err)
		}
	}, false)
}
