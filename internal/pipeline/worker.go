package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/parser"
)

// Worker processes one import job at a time.
type Worker struct {
	o   *Orchestrator
	log *slog.Logger
}

func NewWorker(o *Orchestrator, log *slog.Logger) *Worker {
	return &Worker{o: o, log: log}
}

// Process parses the upload, skips content already imported by this
// orchestrator, and grafts the rest.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusParsing)
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		w.fail(log, job, "unsupported format", err)
		return
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.o.cfg.PDFFallbackPdftotext
	}

	tree, err := p.Parse(bytes.NewReader(job.Data()), job.Filename)
	if err != nil {
		w.fail(log, job, "parse failed", fmt.Errorf("parse: %w", err))
		return
	}
	if ctx.Err() != nil {
		w.fail(log, job, "cancelled", ctx.Err())
		return
	}

	hash := ContentHashHex([]byte(flattenTreeText(tree)))
	job.setHash(hash)
	if prev, ok := w.o.claim(hash, job.ID); !ok {
		log.Info("duplicate import, skipping", "existing_job_id", prev)
		job.SetStatus(StatusDupSkipped)
		return
	}

	job.SetStatus(StatusGrafting)
	path, err := w.o.grafter.Graft(tree, job.Filename)
	if err != nil {
		w.o.release(hash)
		w.fail(log, job, "graft failed", err)
		return
	}
	nodes := tree.Count() + 1
	job.Complete(path, nodes)
	log.Info("import complete", "path", path, "nodes", nodes)
}

func (w *Worker) fail(log *slog.Logger, job *Job, msg string, err error) {
	log.Error(msg, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed)
}

// flattenTreeText joins every title and body of a fragment for hashing.
func flattenTreeText(tree *doctree.DocTree) string {
	var sb strings.Builder
	var walk func(nodes []*doctree.DocNode)
	walk = func(nodes []*doctree.DocNode) {
		for _, n := range nodes {
			sb.WriteString(n.Title)
			sb.WriteString("\n")
			if n.Text != "" {
				sb.WriteString(n.Text)
				sb.WriteString("\n")
			}
			walk(n.Children)
		}
	}
	walk(tree.Children)
	return sb.String()
}
