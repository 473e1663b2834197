package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage indexed documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <doc_id>...",
	Short: "Delete documents and all of their chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd, docsDeleteCmd)
	docsListCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
}

func runDocsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.Engine.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}

	if docsJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(list.Documents) == 0 {
		fmt.Println("No documents indexed.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOC ID\tSUBJECT\tCHUNKS\tUPLOADED\tFILENAME")
		for _, d := range list.Documents {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", d.ID, d.Subject, d.ChunkCount, d.UploadedAt.Local().Format(time.DateTime), d.Filename)
		}
		w.Flush()
	}

	if len(list.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, warning := range list.Warnings {
			fmt.Printf("  - %s\n", warning)
		}
	}

	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var failed int
	for _, id := range args {
		removed, err := a.Engine.DeleteDocument(cmd.Context(), id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to delete %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("Deleted %s (%d chunks)\n", id, removed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(args))
	}
	return nil
}
