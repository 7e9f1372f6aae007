package commands

import (
	"fmt"
	"strings"

	"github.com/dgallion1/outline/internal/commands/options"
	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/printers"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type nodeJSON struct {
	Path     string     `json:"path"`
	Title    string     `json:"title"`
	Body     string     `json:"body,omitempty"`
	Children []nodeJSON `json:"children,omitempty"`
}

func toJSON(t *doctree.Tree, ids []doctree.NodeID, bodies bool) []nodeJSON {
	out := make([]nodeJSON, 0, len(ids))
	for _, id := range ids {
		n, ok := t.Get(id)
		if !ok {
			continue
		}
		path, _ := t.PathOf(id)
		v := nodeJSON{Path: path, Title: n.Title, Children: toJSON(t, t.Children(id), bodies)}
		if bodies {
			v.Body = n.Body
		}
		out = append(out, v)
	}
	return out
}

func joinCrumbs(crumbs []string) string {
	return strings.Join(crumbs, " / ")
}

func addShow(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show the outline, or one node with its body.",
		Example: `
outline show
outline show 0:1
outline show --json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			t := e.sess.Tree()

			if len(args) == 1 {
				id, err := t.NodeAt(args[0])
				if err != nil {
					return output.HandleError(fmt.Errorf("%s: %w", args[0], err))
				}
				if output.JSON {
					return output.Print(toJSON(t, []doctree.NodeID{id}, true)[0])
				}
				(&printers.PrettyPrint{}).Node(t, id)
				return nil
			}

			if output.JSON {
				return output.Print(map[string]any{
					"active": e.activePath(),
					"nodes":  toJSON(t, t.Roots(), false),
				})
			}
			pp := &printers.PrettyPrint{ShowID: io.ShowID}
			pp.Title(e.sess.Path())
			n, _ := e.sess.Active()
			pp.Tree(t, n.ID)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	options.AddShowIDArgs(cmd, io)
	topLevel.AddCommand(cmd)
}

func addCat(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "cat",
		Short: "Print the document as markdown.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(color.Output, e.sess.Markdown())
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addFind(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "List the nodes whose title or body contains the query.",
		Long:  "Matching is case-insensitive. The first hit becomes the remembered selection.",
		Example: `
outline find groceries
outline find "call bob" --json
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			query := strings.Join(args, " ")
			_, status, ok := e.sess.Find(query)
			var hits []doctree.NodeID
			if ok {
				hits = e.sess.Hits()
				if err := e.sess.RememberPath(); err != nil {
					e.log.Warn("could not remember selection", "error", err)
				}
			}

			if output.JSON {
				return output.Print(map[string]any{
					"query":  query,
					"status": status,
					"hits":   toJSON(e.sess.Tree(), hits, false),
				})
			}
			(&printers.PrettyPrint{}).Hits(e.sess.Tree(), hits, query)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addSettings(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the persisted session settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			st := e.sess.Settings()
			if output.JSON {
				return output.Print(st)
			}
			(&printers.PrettyPrint{}).Settings(st)
			return nil
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
