package uaparse

import "github.com/mileusna/useragent"

// Descriptor is the structured form of a raw user-agent string, stored
// denormalized on visit rows.
type Descriptor struct {
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version"`
	OS             string `json:"os"`
	OSVersion      string `json:"os_version"`
	Device         string `json:"device"`
	Mobile         bool   `json:"mobile"`
	Tablet         bool   `json:"tablet"`
	Desktop        bool   `json:"desktop"`
	Bot            bool   `json:"bot"`
}

// Parse never fails; an empty or unrecognized string yields zero fields.
func Parse(raw string) Descriptor {
	ua := useragent.Parse(raw)

	return Descriptor{
		Browser:        ua.Name,
		BrowserVersion: ua.Version,
		OS:             ua.OS,
		OSVersion:      ua.OSVersion,
		Device:         ua.Device,
		Mobile:         ua.Mobile,
		Tablet:         ua.Tablet,
		Desktop:        ua.Desktop,
		Bot:            ua.Bot,
	}
}
