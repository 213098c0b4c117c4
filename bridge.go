package cblite

// Bridge is the native bridge which knows where the embedded server listens.
//
// GetURL must invoke callback exactly once, asynchronously, with either the
// server URL or an error.
type Bridge interface {
	GetURL(callback func(url string, err error))
}

// BridgeFunc adapts an ordinary function to the Bridge interface.
type BridgeFunc func(callback func(url string, err error))

var _ Bridge = BridgeFunc(nil)

// GetURL calls f(callback).
func (f BridgeFunc) GetURL(callback func(url string, err error)) {
	f(callback)
}

// availabler is implemented by bridges which can tell, at notification time,
// whether the native side is present at all.
type availabler interface {
	Available() bool
}

// StaticBridge returns a Bridge which answers with a fixed URL, from a new
// goroutine. It is the bridge for hosts where the server address is known
// up front, such as configuration or a command line flag.
func StaticBridge(url string) Bridge {
	return BridgeFunc(func(callback func(string, error)) {
		go callback(url, nil)
	})
}

// FailingBridge returns a Bridge which always reports err.
func FailingBridge(err error) Bridge {
	return BridgeFunc(func(callback func(string, error)) {
		go callback("", err)
	})
}
