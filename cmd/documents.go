package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/render"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

func init() {
	rootCmd.AddCommand(newDocumentsCmd(backend.CollectionCV, "CVs"))
	rootCmd.AddCommand(newDocumentsCmd(backend.CollectionJD, "job descriptions"))
}

// newDocumentsCmd builds the list/upload/delete/download commands for one
// collection.
func newDocumentsCmd(collection backend.Collection, title string) *cobra.Command {
	name := string(collection)

	root := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage stored %s", title),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List stored %s", title),
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			withClient(func(ctx context.Context, client *backend.Client, logger *zap.Logger) error {
				docs, err := client.ListDocuments(ctx, collection)
				if err != nil {
					return err
				}
				fmt.Println(render.Documents(title, docs))
				return nil
			})
		},
	}

	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a .pdf or .docx file",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			withClient(func(ctx context.Context, client *backend.Client, logger *zap.Logger) error {
				return uploadDocument(ctx, client, logger, collection, args[0])
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored document, choosing it interactively when no id is given",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			yes, _ := cmd.Flags().GetBool("yes")
			withClient(func(ctx context.Context, client *backend.Client, logger *zap.Logger) error {
				id, err := documentID(ctx, client, collection, args)
				if err != nil {
					return err
				}
				if !yes && !confirm(fmt.Sprintf("Delete %s %s", name, id)) {
					logger.Info("exiting", zap.String("reason", "got no from prompt"))
					return nil
				}
				if err := client.DeleteDocument(ctx, collection, id); err != nil {
					return err
				}
				render.Notifier{W: os.Stdout}.Success(fmt.Sprintf("deleted %s %s", name, id))
				return nil
			})
		},
	}
	remove.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	download := &cobra.Command{
		Use:   "download [id]",
		Short: "Download a stored document, choosing it interactively when no id is given",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir, _ := cmd.Flags().GetString("output")
			withClient(func(ctx context.Context, client *backend.Client, logger *zap.Logger) error {
				id, err := documentID(ctx, client, collection, args)
				if err != nil {
					return err
				}
				return downloadDocument(ctx, client, logger, collection, id, dir)
			})
		},
	}
	download.Flags().StringP("output", "o", ".", "directory to save the file into")

	root.AddCommand(list, upload, remove, download)
	if collection == backend.CollectionCV {
		root.AddCommand(newInviteCmd())
	}
	return root
}

// withClient runs fn with a configured client and exits on error.
func withClient(fn func(ctx context.Context, client *backend.Client, logger *zap.Logger) error) {
	logger, config := setup(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, newClient(config, logger), logger); err != nil {
		logger.Fatal("request failed", zap.String("reason", render.Describe(err)), zap.Error(err))
	}
}

func uploadDocument(ctx context.Context, client *backend.Client, logger *zap.Logger, collection backend.Collection, path string) error {
	// Checked before opening the file so a wrong type fails fast.
	if err := backend.ValidateUpload(path); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := client.UploadDocument(ctx, collection, path, f)
	if err != nil {
		return err
	}

	logger.Info("document uploaded", zap.String("id", doc.ID), zap.String("name", doc.Name()))
	render.Notifier{W: os.Stdout}.Success(fmt.Sprintf("uploaded %s as %s", doc.Name(), doc.ID))
	return nil
}

func downloadDocument(ctx context.Context, client *backend.Client, logger *zap.Logger, collection backend.Collection, id, dir string) error {
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	name, err := client.DownloadDocument(ctx, collection, id, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	target := filepath.Join(dir, filepath.Base(name))
	if err := os.Rename(tmp.Name(), target); err != nil {
		return err
	}

	logger.Info("document downloaded", zap.String("id", id), zap.String("filename", target))
	render.Notifier{W: os.Stdout}.Success("saved " + target)
	return nil
}

func documentID(ctx context.Context, client *backend.Client, collection backend.Collection, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	return selectDocument(ctx, client, collection, "Choose a document and press ENTER")
}

func confirm(label string) bool {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptNo, PromptYes},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		if !errors.Is(err, promptui.ErrInterrupt) {
			fmt.Fprintln(os.Stderr, err)
		}
		return false
	}
	return answer == PromptYes
}
