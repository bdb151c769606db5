//go:build !js

package playback

func userAgent() string {
	return ""
}
