//go:build js

package playback

import "syscall/js"

func userAgent() string {
	nav := js.Global().Get("navigator")
	if nav.IsUndefined() || nav.IsNull() {
		return ""
	}
	ua := nav.Get("userAgent")
	if ua.Type() != js.TypeString {
		return ""
	}
	return ua.String()
}
