package schemaforge

import (
	"embed"

	"github.com/kaptinlin/go-i18n"
)

// This file localizes rehydration warnings the way the teacher localizes evaluation errors
// (result.go's Localize): a caller gets the English message through RehydrationWarning.Message
// for free, and can ask for a translated rendering of the same warning for display.

//go:embed locales/*.json
var localesFS embed.FS

var warningBundle *i18n.I18n

func init() {
	bundle := i18n.NewBundle(
		i18n.WithDefaultLocale("en"),
		i18n.WithLocales("en", "zh-Hans"),
	)
	if err := bundle.LoadFS(localesFS, "locales/*.json"); err == nil {
		warningBundle = bundle
	}
}

// LocalizeWarning renders w's message in locale (e.g. "zh-Hans"), falling back to w.Message if
// the bundle failed to load or the locale/code has no translation.
func LocalizeWarning(w RehydrationWarning, locale string) string {
	if warningBundle == nil {
		return w.Message
	}
	localizer := warningBundle.NewLocalizer(locale)
	if localizer == nil {
		return w.Message
	}
	rendered := localizer.Get(string(w.Kind), i18n.Vars(map[string]any{
		"path":    w.Path,
		"message": w.Message,
	}))
	if rendered == "" || rendered == string(w.Kind) {
		return w.Message
	}
	return rendered
}
