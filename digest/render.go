package digest

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/kevpdev/newsletter-automation/scorer"
)

// DomainConfig carries the presentation settings for one domain's digest.
type DomainConfig struct {
	Label       string // Display name, e.g. "Java"
	Color       string // Accent color as #RRGGBB
	OutputLabel string // Mailbox label applied to the sent digest
}

// section is one rendered tier of the digest.
type section struct {
	Heading  string
	Accent   template.CSS
	Articles []scorer.ScoredArticle
}

const digestTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Label}} Tech Digest</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; background-color: #f9f9f9;">

  <div style="background-color: {{.Background}}; border-left: 8px solid {{.Color}}; padding: 20px; margin-bottom: 30px; border-radius: 4px;">
    <h3 style="margin: 0; color: {{.Color}}; font-size: 18px; font-weight: 600; text-transform: uppercase; letter-spacing: 1px;">
      {{.Label}} Tech Digest
    </h3>
    <p style="margin: 8px 0 0 0; color: #666; font-size: 14px;">
      {{.Total}} articles scored and curated
    </p>
  </div>
{{range .Sections}}{{if .Articles}}
  <h2 style="color: #444; font-size: 20px; font-weight: 600; margin: 30px 0 15px 0;">
    {{.Heading}}
  </h2>
  <ul style="list-style: none; padding: 0; margin: 0 0 30px 0;">
{{- $accent := .Accent}}{{range .Articles}}
    <li style="margin-bottom: 20px; padding: 15px; background-color: #fff; border-radius: 4px; border-left: 3px solid {{$accent}};">
      <div style="margin-bottom: 8px;">
        <strong style="color: {{$accent}}; font-size: 16px;">[{{.Score}}/10]</strong>
        <a href="{{.Article.URL}}" target="_blank" rel="noopener noreferrer" style="color: #222; text-decoration: none; font-weight: 600; font-size: 16px;">
          {{.Article.Title}}
        </a>
      </div>
      <p style="margin: 0; color: #666; font-size: 14px; line-height: 1.6;">
        {{.Reason}}
      </p>
      {{- if .Article.Source}}
      <p style="margin: 8px 0 0 0; font-size: 12px; color: #999;">Source: {{.Article.Source}}</p>
      {{- end}}
    </li>
{{- end}}
  </ul>
{{- end}}{{end}}

  <div style="margin-top: 40px; padding-top: 20px; border-top: 1px solid #ddd; text-align: center; color: #999; font-size: 14px;">
    <p style="margin: 0;">
      Tech Digest &middot; Scored by LLM, curated by tier
    </p>
  </div>

</body>
</html>`

const emptyTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Label}} Tech Digest</title>
</head>
<body style="font-family: sans-serif; padding: 40px; text-align: center;">
  <h1 style="color: #999;">No articles this week</h1>
  <p style="color: #666;">Check back next week for updates!</p>
</body>
</html>`

var (
	digestTmpl = template.Must(template.New("digest").Parse(digestTemplate))
	emptyTmpl  = template.Must(template.New("empty").Parse(emptyTemplate))
)

// Render produces the HTML email body for a digest. An empty digest renders
// a short "nothing to report" page rather than failing.
func Render(d Digest, domain DomainConfig) (string, error) {
	var buf strings.Builder

	if d.Empty() {
		if err := emptyTmpl.Execute(&buf, struct{ Label string }{domain.Label}); err != nil {
			return "", fmt.Errorf("rendering empty digest: %w", err)
		}
		return buf.String(), nil
	}

	data := struct {
		Label      string
		Color      template.CSS
		Background template.CSS
		Total      int
		Sections   []section
	}{
		Label:      domain.Label,
		Color:      safeColor(domain.Color),
		Background: hexToRGBA(domain.Color, 0.2),
		Total:      d.Total,
		Sections: []section{
			{Heading: "\U0001F525 Critical Updates (Must Read)", Accent: "#FF6B6B", Articles: d.Critical},
			{Heading: "\U0001F4CC Important Updates", Accent: "#3A86FF", Articles: d.Important},
			{Heading: "\U0001F4A1 Bonus Reads", Accent: "#06D6A0", Articles: d.Bonus},
		},
	}

	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}

// safeColor admits only #RGB / #RRGGBB values into CSS context; anything
// else falls back to a neutral grey.
func safeColor(hex string) template.CSS {
	if valid, _ := parseHex(hex); valid {
		return template.CSS(hex)
	}
	return "#666666"
}

// hexToRGBA converts a #RRGGBB color to an rgba() value with the given
// opacity, for the tinted header background.
func hexToRGBA(hex string, opacity float64) template.CSS {
	valid, rgb := parseHex(hex)
	if !valid {
		return template.CSS(fmt.Sprintf("rgba(102, 102, 102, %g)", opacity))
	}
	return template.CSS(fmt.Sprintf("rgba(%d, %d, %d, %g)", rgb[0], rgb[1], rgb[2], opacity))
}

func parseHex(hex string) (bool, [3]uint8) {
	var rgb [3]uint8
	if len(hex) != 7 || hex[0] != '#' {
		return false, rgb
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return false, rgb
		}
		rgb[i] = uint8(v)
	}
	return true, rgb
}
