package commands

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/studiocoach/course-api/internal/config"
	s3infra "github.com/studiocoach/course-api/internal/infrastructure/s3"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Manage downloadable resources (lead-magnet PDF, chapter attachments)",
}

var resourcesPutCmd = &cobra.Command{
	Use:   "put <file> <key>",
	Short: "Upload a local file to the resource bucket under key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resourcesPut(cmd.Context(), args[0], args[1])
	},
}

var resourcesGetCmd = &cobra.Command{
	Use:   "get <key> <file>",
	Short: "Download a resource to a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resourcesGet(cmd.Context(), args[0], args[1])
	},
}

var resourcesRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Delete a resource from the bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return resourcesRm(cmd.Context(), args[0])
	},
}

func init() {
	resourcesCmd.AddCommand(resourcesPutCmd, resourcesGetCmd, resourcesRmCmd)
	rootCmd.AddCommand(resourcesCmd)
}

func resourceStore() *s3infra.Store {
	cfg := config.Load()
	return s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
}

func resourcesPut(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	loc, err := resourceStore().Upload(ctx, key, f, contentType)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	color.Green("Uploaded %s -> %s", path, loc)
	return nil
}

func resourcesGet(ctx context.Context, key, path string) error {
	body, err := resourceStore().Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer body.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	color.Green("Downloaded %s (%d bytes) -> %s", key, n, path)
	return nil
}

func resourcesRm(ctx context.Context, key string) error {
	if err := resourceStore().Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	color.Green("Deleted %s", key)
	return nil
}
