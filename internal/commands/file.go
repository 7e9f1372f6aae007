package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/outline/internal/commands/options"
	"github.com/dgallion1/outline/internal/parser"
	"github.com/dgallion1/outline/internal/session"
	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
)

func addExport(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "export [out.html]",
		Short: "Render the document to HTML.",
		Long:  "The page is written to the given file, or to stdout. The configured template's <body /> is replaced by the rendered document.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			var out string
			if len(args) == 1 {
				out = args[0]
			}
			page, err := e.sess.ExportHTML(out)
			if err != nil {
				return err
			}
			if out == "" {
				_, _ = fmt.Fprintln(color.Output, page)
			}
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command) {
	var (
		gnote  bool
		tomboy bool
	)

	cmd := &cobra.Command{
		Use:   "import <file> | --gnote [dir] | --tomboy [dir]",
		Short: "Import a file or a note application's notes as a new top-level node.",
		Long: fmt.Sprintf("Supported files: %v.\nWith --gnote or --tomboy the directory defaults to the application's note store.",
			parser.SupportedExtensions),
		Example: `
outline import report.pdf
outline import --gnote
outline import --tomboy ~/backup/tomboy
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if gnote && tomboy {
				return errors.New("--gnote and --tomboy are exclusive")
			}
			if gnote || tomboy {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}

			switch {
			case gnote || tomboy:
				source := parser.Gnote
				if tomboy {
					source = parser.Tomboy
				}
				var dir string
				if len(args) == 1 {
					dir = args[0]
				}
				_, err = e.sess.ImportNotes(dir, source)
			default:
				_, err = e.sess.Import(args[0])
			}
			if err != nil {
				return output.HandleError(err)
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("imported"))
		},
	}

	cmd.Flags().BoolVar(&gnote, "gnote", false,
		"Import gnote notes.")
	cmd.Flags().BoolVar(&tomboy, "tomboy", false,
		"Import tomboy notes.")
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addConvert(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Rewrite a document in the format of the output's extension.",
		Long:  "Files ending in .xml use the legacy XML document format. Anything else is written as markdown.",
		Example: `
outline convert old.xml notes.text
outline convert notes.text archive.xml
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			// No settings store: converting must not move the remembered
			// document.
			sess := session.New(session.Options{
				Logger:       cliLogger(cfg),
				TemplatePath: cfg.TemplatePath,
			})
			if err := sess.Load(args[0]); err != nil {
				return err
			}
			res, err := sess.SaveAs(args[1], false)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(color.Output, "wrote %s (%d bytes)\n", res.Path, res.Bytes)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addOpen(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "open <file>",
		Short: "Make a file the current document.",
		Long:  "Later commands without --file work on this document. A missing file starts from the welcome document and is created on the first change.",
		Example: `
outline open ~/notes/work.text
outline show
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, err := homedir.Expand(args[0])
			if err != nil {
				return output.HandleError(err)
			}
			if path, err = filepath.Abs(path); err != nil {
				return output.HandleError(err)
			}
			log := cliLogger(cfg)
			e := &env{cfg: cfg, log: log, sess: newSession(cfg, log)}
			if err := e.sess.Open(path); err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				return output.Print(map[string]any{
					"file":  path,
					"nodes": e.sess.Tree().Len(),
					"path":  e.activePath(),
				})
			}
			_, _ = fmt.Fprintf(color.Output, "opened %s (%d nodes)\n", path, e.sess.Tree().Len())
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addRestore(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the document with its last backup.",
		Long:  "The document is overwritten by <file>.backup. With backups enabled the replaced version becomes the new backup, so a restore can itself be restored.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.Restore(); err != nil {
				return output.HandleError(err)
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("restored"))
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
