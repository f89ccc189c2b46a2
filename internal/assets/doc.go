// Package assets provides the stylesheets and the slide deck template used to
// render presentations and documents.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in assets compiled in with go:embed
//	    ├── FilesystemLoader  - user assets from a directory on disk
//	    └── AssetResolver     - --asset-path directory, then built-in
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   ├── slides.css      # slide deck style
//	│   └── document.css    # full document style
//	└── templates/
//	    └── deck.html       # slide deck html/template
//
// Asset names are validated so they cannot escape basePath.
package assets
