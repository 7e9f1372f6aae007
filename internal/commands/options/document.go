package options

import (
	"github.com/spf13/cobra"
)

// DocumentOptions picks the document a command works on.
type DocumentOptions struct {
	// File overrides the configured document.
	File string
	// NoBackup skips backup rotation when a command saves.
	NoBackup bool
}

func AddDocumentArgs(cmd *cobra.Command, do *DocumentOptions) {
	cmd.PersistentFlags().StringVarP(&do.File, "file", "f", "",
		"Document to open (default is the configured file).")
	cmd.PersistentFlags().BoolVar(&do.NoBackup, "no-backup", false,
		"Do not rotate backups when saving.")
}

// PathOptions selects a node by its tree path, e.g. "0:2".
type PathOptions struct {
	Path string
}

func AddPathArg(cmd *cobra.Command, po *PathOptions) {
	cmd.Flags().StringVarP(&po.Path, "path", "p", "",
		"Tree path of the node (default is the remembered selection).")
}

// IDOptions
type IDOptions struct {
	ShowID bool
}

func AddShowIDArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVar(&o.ShowID, "id", false,
		"Show the tree path of each node.")
}
