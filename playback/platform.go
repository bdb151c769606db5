package playback

import "regexp"

var gatedAgent = regexp.MustCompile(`iPad|iPhone|iPod`)

// Platform classifies the host for backend preference. Gated platforms refuse
// audio output until a user gesture has unlocked it.
type Platform struct {
	Name  string
	Gated bool
}

// DetectPlatform classifies a browser user agent. An empty agent is a
// desktop build.
func DetectPlatform(userAgent string) Platform {
	if userAgent == "" {
		return Platform{Name: "desktop"}
	}
	if gatedAgent.MatchString(userAgent) {
		return Platform{Name: "ios", Gated: true}
	}
	return Platform{Name: "browser"}
}

// CurrentPlatform detects the platform the process is running on.
func CurrentPlatform() Platform {
	return DetectPlatform(userAgent())
}
