// Package commands wires the outline command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/outline/internal/commands/options"
	"github.com/dgallion1/outline/internal/config"
	"github.com/dgallion1/outline/internal/session"
	"github.com/dgallion1/outline/internal/settings"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	output = &options.OutputOptions{}
	doc    = &options.DocumentOptions{}
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "A hierarchical note outliner kept in a markdown file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	options.AddDocumentArgs(cmd, doc)
	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addServe(topLevel)
	addShow(topLevel)
	addCat(topLevel)
	addFind(topLevel)
	addAdd(topLevel)
	addRemove(topLevel)
	addMove(topLevel)
	addRename(topLevel)
	addEdit(topLevel)
	addExport(topLevel)
	addImport(topLevel)
	addConvert(topLevel)
	addOpen(topLevel)
	addRestore(topLevel)
	addSettings(topLevel)
}

// env is what every document command runs against.
type env struct {
	cfg  config.Config
	log  *slog.Logger
	sess *session.Session
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if doc.File != "" {
		cfg.File = doc.File
		cfg.FileSet = true
	}
	if doc.NoBackup {
		cfg.Backup = false
	}
	return cfg, cfg.Validate()
}

// open loads the configured document. Logs go to stderr so they never mix
// with command output.
func open() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openWith(cfg, cliLogger(cfg))
}

func cliLogger(cfg config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openWith loads the configured file when one was given, otherwise the
// document last opened.
func openWith(cfg config.Config, log *slog.Logger) (*env, error) {
	sess := newSession(cfg, log)
	load := sess.Resume
	if cfg.FileSet {
		load = sess.Load
	}
	if err := load(cfg.File); err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, sess: sess}, nil
}

func newSession(cfg config.Config, log *slog.Logger) *session.Session {
	return session.New(session.Options{
		Logger:               log,
		Settings:             settings.Open(cfg.SettingsDir(), settings.Defaults(cfg.File)),
		TemplatePath:         cfg.TemplatePath,
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
	})
}

// selectPath selects the node at path. An empty path keeps the remembered
// selection.
func (e *env) selectPath(path string) error {
	if path == "" {
		return nil
	}
	return e.sess.SelectPath(path)
}

// save writes the document and remembers the selection. A failed backup is
// logged, not returned.
func (e *env) save() error {
	res, err := e.sess.Save(e.cfg.Backup)
	if err != nil {
		return err
	}
	if res.Warning != nil {
		e.log.Warn("saved without backup", "path", res.Path, "error", res.Warning)
	}
	e.log.Debug("saved", "path", res.Path, "bytes", res.Bytes)
	return nil
}

// activePath is the tree path of the selection, or "" when nothing is
// selected.
func (e *env) activePath() string {
	n, ok := e.sess.Active()
	if !ok {
		return ""
	}
	p, _ := e.sess.Tree().PathOf(n.ID)
	return p
}

// done reports the affected node in the requested output format.
func (e *env) done(verb string) error {
	path := e.activePath()
	if output.JSON {
		return output.Print(map[string]any{
			"path":       path,
			"breadcrumb": e.sess.Breadcrumb(),
		})
	}
	_, _ = fmt.Fprintf(color.Output, "%s %s (%s)\n", verb, path, joinCrumbs(e.sess.Breadcrumb()))
	return nil
}
