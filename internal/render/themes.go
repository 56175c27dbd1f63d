package render

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Built-in markdown theme names
const (
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeTokyoNight = "tokyonight"
	ThemeDracula    = "dracula"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// ThemeInfo describes a markdown theme for display
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the built-in markdown themes
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// IsBuiltinStyle reports whether style names a built-in theme
func IsBuiltinStyle(style string) bool {
	_, ok := builtinStyle(style)
	return ok
}

func builtinStyle(name string) (ansi.StyleConfig, bool) {
	var base ansi.StyleConfig
	switch name {
	case ThemeDark:
		base = styles.DarkStyleConfig
	case ThemeLight:
		base = styles.LightStyleConfig
	case ThemeTokyoNight:
		base = styles.TokyoNightStyleConfig
	case ThemeDracula:
		base = styles.DraculaStyleConfig
	case ThemeNoTTY:
		return styles.NoTTYStyleConfig, true
	case ThemeASCII:
		return styles.ASCIIStyleConfig, true
	default:
		return ansi.StyleConfig{}, false
	}
	return adviceStyle(base), true
}

// adviceStyle drops the document margin, the chat viewport already pads
// messages, and draws rules as a short separator between advice sections.
func adviceStyle(cfg ansi.StyleConfig) ansi.StyleConfig {
	margin := uint(0)
	cfg.Document.Margin = &margin
	cfg.HorizontalRule.Format = "\n──────────\n"
	return cfg
}

// styleOption selects a built-in theme, or treats style as a glamour style name or JSON path
func styleOption(style string) glamour.TermRendererOption {
	if cfg, ok := builtinStyle(style); ok {
		return glamour.WithStyles(cfg)
	}
	return glamour.WithStylePath(style)
}
