package format

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig"

	"github.com/calvinalkan/tabedit/internal/tab"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("base").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/*.tmpl"),
)

type htmlDocument struct {
	Name       string
	Tuning     string
	Labels     []string
	Annotation string
	Tracks     []TrackSystems
}

// RenderHTML writes song as a standalone HTML page. Each system of the
// plain-text rendering becomes one <pre> block.
func RenderHTML(w io.Writer, song *tab.Song, opts RenderOptions) error {
	tuning := song.TuningInfo()

	doc := htmlDocument{
		Name:       song.Name,
		Tuning:     tuning.Name,
		Labels:     tuning.Labels[:],
		Annotation: song.Annotation,
		Tracks:     Layout(song, opts),
	}

	err := htmlTemplate.ExecuteTemplate(w, "export", doc)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}
