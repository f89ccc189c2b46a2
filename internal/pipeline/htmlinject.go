package pipeline

import (
	"context"
	"strings"
)

// CSSInjector injects stylesheets into an HTML document.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent string, stylesheets ...string) string
}

// CSSInjection injects CSS as a single <style> block.
type CSSInjection struct{}

// InjectCSS inserts the non-empty stylesheets, in order, as one <style>
// block before </head>, else right after <body>, else at the start.
// Later stylesheets override earlier ones by cascade order.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent string, stylesheets ...string) string {
	if ctx.Err() != nil {
		return htmlContent
	}

	var parts []string
	for _, css := range stylesheets {
		if strings.TrimSpace(css) != "" {
			parts = append(parts, sanitizeCSS(css))
		}
	}
	if len(parts) == 0 {
		return htmlContent
	}

	styleBlock := "<style>\n" + strings.Join(parts, "\n") + "\n</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes "</" so the stylesheet cannot close its <style> element.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// Compile-time interface check.
var _ CSSInjector = (*CSSInjection)(nil)
