package shell

import (
	"slices"
	"strings"
)

// Themes are the accepted values of the theme preference.
var Themes = []string{"default", "dracula", "nord", "solarized", "matrix", "amber"}

// Setting is a user preference managed by the config command.
type Setting struct {
	Key         string
	Default     string
	Description string
	// Allowed lists the accepted values; empty means free text.
	Allowed []string
}

// Settings is the preference table in display order.
var Settings = []Setting{
	{Key: "theme", Default: "default", Description: "color theme", Allowed: Themes},
	{Key: "sound", Default: "on", Description: "keystroke and alert sounds", Allowed: []string{"on", "off"}},
	{Key: "date_format", Default: "iso", Description: "how dates are shown", Allowed: []string{"iso", "us", "eu"}},
	{Key: "editor", Default: "", Description: "editor command used by new/edit/today"},
}

// LookupSetting finds a preference by key, ignoring case.
func LookupSetting(key string) (Setting, bool) {
	key = strings.ToLower(key)
	for _, s := range Settings {
		if s.Key == key {
			return s, true
		}
	}
	return Setting{}, false
}

// Accepts reports whether value is valid for the setting.
func (s Setting) Accepts(value string) bool {
	return len(s.Allowed) == 0 || slices.Contains(s.Allowed, value)
}

func settingKeys() []string {
	keys := make([]string, len(Settings))
	for i, s := range Settings {
		keys[i] = s.Key
	}
	return keys
}

// dateLayouts maps the date_format preference to a time layout.
var dateLayouts = map[string]string{
	"iso": "2006-01-02 15:04",
	"us":  "01/02/2006 3:04 PM",
	"eu":  "02.01.2006 15:04",
}
