package useragent

import (
	"fmt"
	"strings"
)

// Device types.
const (
	TypeDesktop = "desktop"
	TypeMobile  = "mobile"
	TypeTablet  = "tablet"
	TypeBot     = "bot"
	TypeUnknown = "unknown"
)

// Unknown is used for an OS or browser that could not be recognized.
const Unknown = "Unknown"

// Device is a coarse description of the client behind a user agent.
type Device struct {
	Type    string `json:"type"`
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

// Label renders the device for people, e.g. "Chrome on macOS".
func (d Device) Label() string {
	if d.Type == TypeBot {
		return "Bot"
	}
	if d.Browser == Unknown && d.OS == Unknown {
		return "Unknown device"
	}
	return fmt.Sprintf("%s on %s", d.Browser, d.OS)
}

type rule struct {
	name     string
	keywords []string
	excludes []string
}

func (r rule) match(lowerUA string) bool {
	for _, ex := range r.excludes {
		if strings.Contains(lowerUA, ex) {
			return false
		}
	}
	for _, kw := range r.keywords {
		if strings.Contains(lowerUA, kw) {
			return true
		}
	}
	return false
}

// Order matters: the first matching rule wins.
var (
	osRules = []rule{
		{name: "Windows Phone", keywords: []string{"windows phone"}},
		{name: "Windows", keywords: []string{"windows"}},
		{name: "iOS", keywords: []string{"iphone", "ipad", "ipod"}},
		{name: "macOS", keywords: []string{"macintosh", "mac os x"}},
		{name: "Android", keywords: []string{"android"}},
		{name: "ChromeOS", keywords: []string{"cros ", "chromeos"}},
		{name: "Linux", keywords: []string{"linux", "x11"}},
	}

	browserRules = []rule{
		{name: "Edge", keywords: []string{"edg/", "edge/"}},
		{name: "Opera", keywords: []string{"opr/", "opera"}},
		{name: "Samsung Internet", keywords: []string{"samsungbrowser"}},
		{name: "Firefox", keywords: []string{"firefox/", "fxios/"}},
		{name: "Chrome", keywords: []string{"chrome/", "crios/"}},
		{name: "Safari", keywords: []string{"safari/"}, excludes: []string{"android"}},
		{name: "Internet Explorer", keywords: []string{"msie", "trident/"}},
	}

	botKeywords = []string{"bot", "crawler", "spider", "curl/", "wget/", "headless"}
)

// Describe classifies a user agent string. It never fails; unrecognized parts
// are reported as Unknown.
func Describe(ua string) Device {
	lower := strings.ToLower(strings.TrimSpace(ua))
	return Device{
		Type:    deviceType(lower),
		OS:      first(osRules, lower),
		Browser: first(browserRules, lower),
	}
}

func first(rules []rule, lowerUA string) string {
	for _, r := range rules {
		if r.match(lowerUA) {
			return r.name
		}
	}
	return Unknown
}

func deviceType(lowerUA string) string {
	switch {
	case lowerUA == "":
		return TypeUnknown
	case strings.Contains(lowerUA, "ipad"):
		return TypeTablet
	case strings.Contains(lowerUA, "iphone"):
		return TypeMobile
	}
	for _, kw := range botKeywords {
		if strings.Contains(lowerUA, kw) {
			return TypeBot
		}
	}
	switch {
	case strings.Contains(lowerUA, "android"):
		// Android tablets omit the "mobile" token.
		if strings.Contains(lowerUA, "mobile") {
			return TypeMobile
		}
		return TypeTablet
	case strings.Contains(lowerUA, "tablet"):
		return TypeTablet
	case strings.Contains(lowerUA, "mobile"):
		return TypeMobile
	case strings.Contains(lowerUA, "windows"), strings.Contains(lowerUA, "macintosh"),
		strings.Contains(lowerUA, "x11"), strings.Contains(lowerUA, "cros "):
		return TypeDesktop
	}
	return TypeUnknown
}
