// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Mount points single page apps render into.
var appRoots = []string{"#root", "#app", "#__next", "#__nuxt", "[ng-app]", "[data-reactroot]", "[ng-version]"}

// DetectJavaScriptFramework names the client-side framework a document
// appears to be built with, or "Unknown".
func DetectJavaScriptFramework(html string) string {
	html = strings.ToLower(html)

	switch {
	case strings.Contains(html, "data-reactroot"), strings.Contains(html, "__next_data__"), strings.Contains(html, "react-dom"):
		return "React"
	case strings.Contains(html, "data-v-app"), strings.Contains(html, "__nuxt"), strings.Contains(html, "vue.runtime"):
		return "Vue"
	case strings.Contains(html, "ng-version"), strings.Contains(html, "ng-app"):
		return "Angular"
	case strings.Contains(html, "ember-application"):
		return "Ember"
	case strings.Contains(html, "svelte-"):
		return "Svelte"
	}
	return "Unknown"
}

// NeedsJavaScript determines if a page likely needs JS rendering
func NeedsJavaScript(html string, scriptCount int) bool {
	if scriptCount > 5 && strings.Count(html, "<div") < scriptCount {
		return true
	}
	if DetectJavaScriptFramework(html) != "Unknown" {
		return true
	}
	if strings.Count(html, "<div") < 3 && scriptCount > 0 {
		return true
	}
	return false
}

// EmptyShell reports whether doc is an app mount point with no server
// rendered content.
func EmptyShell(doc *goquery.Document) bool {
	for _, sel := range appRoots {
		root := doc.Find(sel)
		if root.Length() > 0 && strings.TrimSpace(root.Text()) == "" {
			return true
		}
	}
	return false
}
