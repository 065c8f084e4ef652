package output

import (
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/law-makers/scavenger/internal/utils/url"
	"github.com/law-makers/scavenger/pkg/models"
)

// Markdown converts an HTML fragment to GitHub flavored Markdown. Relative
// links are resolved against baseURL when it is set.
func Markdown(fragment, baseURL string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	if baseURL != "" {
		converter.AddRules(md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				href, exists := selec.Attr("href")
				if !exists {
					return nil
				}
				resolved := urlutil.ResolveURL(baseURL, href)
				var titlePart string
				if title, ok := selec.Attr("title"); ok {
					titlePart = fmt.Sprintf(" %q", title)
				}
				str := fmt.Sprintf("[%s](%s%s)", strings.TrimSpace(content), resolved, titlePart)
				return &str
			},
		})
	}

	cleaned, err := CleanHTML(fragment)
	if err != nil {
		return "", err
	}
	out, err := converter.ConvertString(cleaned)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// WriteMarkdown renders scraps as one section each, attributes in key
// order.
func WriteMarkdown(w io.Writer, scraps []models.Scrap) error {
	for i, s := range scraps {
		if i > 0 {
			if _, err := io.WriteString(w, "\n---\n\n"); err != nil {
				return err
			}
		}
		title := s.Title
		if title == "" {
			title = s.Hash
		}
		if _, err := fmt.Fprintf(w, "## %s\n\n", title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "- **target**: %s\n- **source**: <%s>\n- **hash**: `%s`\n", s.Target, s.Source, short(s.Hash)); err != nil {
			return err
		}
		for _, k := range dataKeys([]models.Scrap{s}) {
			v := strings.ReplaceAll(strings.TrimSpace(s.Data[k]), "\n", " ")
			if _, err := fmt.Fprintf(w, "- **%s**: %s\n", k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
