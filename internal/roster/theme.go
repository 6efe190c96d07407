package roster

// Theme is the persisted colour scheme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// DefaultTheme is used when no preference has been stored yet.
const DefaultTheme = ThemeDark

// ParseTheme reports whether s names a known theme.
// Any value other than "dark" or "light" is rejected.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), true
	}
	return "", false
}

// String returns the string representation of the theme.
func (t Theme) String() string {
	return string(t)
}
