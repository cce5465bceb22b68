package evaluation

import (
	"embed"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const maxNameLength = 30

var profileDescriptions = map[classifier.Profile]string{
	classifier.Strict:     "High confidence required (fewer false positives)",
	classifier.Balanced:   "Balanced approach (default)",
	classifier.Aggressive: "Flag more images (catches more forgeries)",
}

var reportTemplate = template.Must(
	template.New("evaluation").Funcs(template.FuncMap{
		"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"f2":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"f3":    func(v float64) string { return fmt.Sprintf("%.3f", v) },
		"upper": strings.ToUpper,
		"title": title,
		"detectorName": func(n detector.Name) string {
			return title(strings.ReplaceAll(string(n), "_", " "))
		},
		"describe": func(p classifier.Profile) string {
			if d, ok := profileDescriptions[p]; ok {
				return d
			}
			return "Custom threshold"
		},
		"shortName": shortName,
		"truth": func(c classifier.Classification) string {
			s := strings.ToUpper(string(c))
			if len(s) > 4 {
				s = s[:4]
			}
			return s
		},
		"score": func(img ImageResult, name string) string {
			return fmt.Sprintf("%.2f", img.Scores[detector.Name(name)])
		},
		"verdict": verdict,
		"flags": func(img ImageResult) string {
			if flags := img.Flags(); len(flags) > 0 {
				return strings.Join(flags, ",")
			}
			return "-"
		},
	}).ParseFS(templateFS, "templates/*.tmpl"),
)

// WriteMarkdown renders r as a markdown report.
func WriteMarkdown(w io.Writer, r *Report) error {
	if err := reportTemplate.ExecuteTemplate(w, "report", r); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// verdict is F or A for the prediction followed by a mark for correctness.
func verdict(img ImageResult, p classifier.Profile) string {
	symbol := "A"
	if img.Predictions[p] == classifier.Forged {
		symbol = "F"
	}
	if img.Correct(p) {
		return symbol + "✓"
	}
	return symbol + "✗"
}

func shortName(path string) string {
	name := filepath.Base(path)
	if r := []rune(name); len(r) > maxNameLength {
		return "..." + string(r[len(r)-(maxNameLength-3):])
	}
	return name
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
