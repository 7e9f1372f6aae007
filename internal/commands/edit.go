package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/outline/internal/commands/options"
	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/session"
	"github.com/spf13/cobra"
)

func addAdd(topLevel *cobra.Command) {
	po := &options.PathOptions{}
	var (
		child bool
		body  string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a node after the selected one, or under it with --child.",
		Example: `
outline add Groceries
outline add milk --child --path 0
outline add "Call Bob" --body "about the lease"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			if err := e.selectPath(po.Path); err != nil {
				return output.HandleError(err)
			}

			insert := e.sess.InsertSibling
			if child {
				insert = e.sess.InsertChild
			}
			if _, err := insert(); err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.Rename(strings.Join(args, " ")); err != nil {
				return output.HandleError(err)
			}
			if body != "" {
				if err := e.sess.Edit(body, len(body)); err != nil {
					return output.HandleError(err)
				}
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("added"))
		},
	}

	options.AddPathArg(cmd, po)
	options.AddOutputArg(cmd, output)
	cmd.Flags().BoolVarP(&child, "child", "c", false,
		"Add as the last child instead of the next sibling.")
	cmd.Flags().StringVarP(&body, "body", "b", "",
		"Body text of the new node.")
	topLevel.AddCommand(cmd)
}

func addRemove(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "rm <path>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a node and everything under it.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.SelectPath(args[0]); err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.Delete(); err != nil {
				return output.HandleError(err)
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("selected"))
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addMove(topLevel *cobra.Command) {
	var (
		parent string
		index  int
	)

	cmd := &cobra.Command{
		Use:   "mv <path>",
		Short: "Move a node under another parent.",
		Long:  "Without --parent the node moves to the top level. The index is clamped to the parent's children.",
		Example: `
outline mv 2 --parent 0
outline mv 0:1 --index 0
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			t := e.sess.Tree()
			id, err := t.NodeAt(args[0])
			if err != nil {
				return output.HandleError(fmt.Errorf("%s: %w", args[0], err))
			}
			to := doctree.Root
			if parent != "" {
				if to, err = t.NodeAt(parent); err != nil {
					return output.HandleError(fmt.Errorf("%s: %w", parent, err))
				}
			}
			if err := e.sess.Move(id, to, index); err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.Select(id); err != nil {
				return output.HandleError(err)
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("moved"))
		},
	}

	options.AddOutputArg(cmd, output)
	cmd.Flags().StringVar(&parent, "parent", "",
		"Tree path of the new parent.")
	cmd.Flags().IntVar(&index, "index", 0,
		"Position among the new parent's children.")
	topLevel.AddCommand(cmd)
}

func addRename(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "rename <path> <title>",
		Short: "Change a node's title.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.SelectPath(args[0]); err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.Rename(strings.Join(args[1:], " ")); err != nil {
				return output.HandleError(err)
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("renamed"))
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command) {
	var (
		body     string
		appendTo bool
		date     bool
	)

	cmd := &cobra.Command{
		Use:   "edit <path>",
		Short: "Replace or extend a node's body.",
		Long:  "The new text comes from --body, or from stdin when --body is not given.",
		Example: `
outline edit 0:1 --body "milk"
echo "- eggs" | outline edit 0:1 --append
outline edit 0 --append --date
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := body
			if !cmd.Flags().Changed("body") && !date {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return output.HandleError(err)
				}
				text = string(b)
			}

			e, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			if err := e.sess.SelectPath(args[0]); err != nil {
				return output.HandleError(err)
			}
			if err := editBody(e, text, appendTo, date); err != nil {
				return output.HandleError(err)
			}
			if err := e.save(); err != nil {
				return output.HandleError(err)
			}
			return output.HandleError(e.done("edited"))
		},
	}

	options.AddOutputArg(cmd, output)
	cmd.Flags().StringVarP(&body, "body", "b", "",
		"New body text.")
	cmd.Flags().BoolVarP(&appendTo, "append", "a", false,
		"Append to the body instead of replacing it.")
	cmd.Flags().BoolVar(&date, "date", false,
		"Insert today's date after the text.")
	topLevel.AddCommand(cmd)
}

func editBody(e *env, text string, appendTo, date bool) error {
	n, ok := e.sess.Active()
	if !ok {
		return session.ErrNoSelection
	}
	content := text
	if appendTo {
		content = n.Body + text
	}
	if err := e.sess.Edit(content, len(content)); err != nil {
		return err
	}
	if date {
		return e.sess.InsertDate()
	}
	return nil
}
