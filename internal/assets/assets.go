package assets

// Built-in asset names.
const (
	SlidesStyle   = "slides"
	DocumentStyle = "document"
	DeckTemplate  = "deck"
)

var defaultLoader = NewEmbeddedLoader()

// BuiltinStyles lists the style names compiled into the binary.
func BuiltinStyles() []string {
	return defaultLoader.Styles()
}

// LoadStyle loads a built-in stylesheet by name, without the .css extension.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads a built-in template by name, without the .html extension.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
