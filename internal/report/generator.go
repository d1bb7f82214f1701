package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forensys/evidence-custody/internal/store/model"
)

// Generator renders and persists custody report artifacts. The rendered
// file lives outside the evidence directories so report regeneration can
// never touch stored evidence.
type Generator struct {
	outputDir string
	renderers map[Format]Renderer
}

func NewGenerator(outputDir string) (*Generator, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating report output directory: %w", err)
	}

	g := &Generator{
		outputDir: outputDir,
		renderers: make(map[Format]Renderer),
	}
	for _, r := range []Renderer{NewHTMLRenderer(), NewCSVRenderer()} {
		g.renderers[r.SupportedFormat()] = r
	}
	return g, nil
}

// Generate writes the artifact for the given format and returns its path.
func (g *Generator) Generate(job *model.Job, entries model.CustodyEntryList, format Format) (string, error) {
	renderer, ok := g.renderers[format]
	if !ok {
		return "", fmt.Errorf("unsupported report format: %s", format)
	}

	now := time.Now().UTC()
	body, err := renderer.Render(&Data{
		Job:           job,
		Entries:       entries,
		GeneratedDate: now.Format("2006-01-02"),
		GeneratedTime: now.Format("15:04:05 MST"),
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(g.outputDir, fmt.Sprintf("%s.%s", job.ID, format))
	if err := os.WriteFile(path, []byte(body), 0o640); err != nil {
		return "", fmt.Errorf("writing report artifact: %w", err)
	}
	return path, nil
}
