package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moolen/researchlab/internal/agent/multiagent/types"
	"github.com/moolen/researchlab/internal/config"
	"github.com/moolen/researchlab/internal/logging"
)

// Emitter writes finished reports to a file or stdout as configured by the
// output section. It is only called for runs that reached DONE.
type Emitter struct {
	cfg    config.OutputConfig
	stdout io.Writer
	logger *logging.Logger
}

// NewEmitter creates an Emitter. stdout receives the report when no output
// path is configured.
func NewEmitter(cfg config.OutputConfig, stdout io.Writer) *Emitter {
	return &Emitter{cfg: cfg, stdout: stdout, logger: logging.GetLogger("report")}
}

// Document renders the report in the configured format.
func (e *Emitter) Document(r *types.FinalReport) ([]byte, error) {
	opts := Options{Frontmatter: e.cfg.Frontmatter, AppendReview: e.cfg.AppendReview}
	if e.cfg.Format == config.FormatHTML {
		title := r.Title
		if title == "" {
			title = r.Topic
		}
		return HTMLDocument(title, Body(r, opts))
	}
	return Markdown(r, opts)
}

// Emit writes the report to the configured path, or to stdout.
func (e *Emitter) Emit(r *types.FinalReport) error {
	if e.cfg.Path != "" {
		return e.EmitTo(e.cfg.Path, r)
	}

	if e.renderForTerminal() {
		out, err := RenderTerminal(Body(r, Options{AppendReview: e.cfg.AppendReview}), e.width())
		if err != nil {
			return err
		}
		_, err = e.stdout.Write(out)
		return err
	}

	doc, err := e.Document(r)
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(doc)
	return err
}

// EmitTo writes the report document to path.
func (e *Emitter) EmitTo(path string, r *types.FinalReport) error {
	doc, err := e.Document(r)
	if err != nil {
		return err
	}
	if err := WriteFile(path, doc); err != nil {
		return err
	}
	e.logger.Info("Report written to %s", path)
	return nil
}

func (e *Emitter) renderForTerminal() bool {
	if e.cfg.Format != config.FormatMarkdown {
		return false
	}
	switch e.cfg.Render {
	case config.RenderAlways:
		return true
	case config.RenderAuto:
		f, ok := e.stdout.(*os.File)
		return ok && IsTerminal(f)
	default:
		return false
	}
}

func (e *Emitter) width() int {
	f, _ := e.stdout.(*os.File)
	return TerminalWidth(f)
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// FileName derives a file name for a topic, used when several reports are
// written to one directory.
func FileName(topic string, index int, format string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(topic), "-"), "-")
	if len(slug) > 60 {
		slug = strings.TrimRight(slug[:60], "-")
	}
	if slug == "" {
		slug = "report"
	}
	ext := ".md"
	if format == config.FormatHTML {
		ext = ".html"
	}
	return fmt.Sprintf("%02d-%s%s", index+1, slug, ext)
}

// PathIn joins dir and the file name for topic.
func PathIn(dir, topic string, index int, format string) string {
	return filepath.Join(dir, FileName(topic, index, format))
}
