package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
)

var (
	galleryMine bool
	galleryURLs bool
)

// galleryCmd represents the gallery command
var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List the photos in the gallery",
	Long: `List the photos in the public gallery, or your own uploads with --mine.

Examples:
  furryfriends gallery
  furryfriends gallery --mine
  furryfriends gallery --urls        # Only print image URLs, one per line`,
	Args: cobra.NoArgs,
	RunE: listGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)

	galleryCmd.Flags().BoolVar(&galleryMine, "mine", false, "list your own uploads (requires login)")
	galleryCmd.Flags().BoolVar(&galleryURLs, "urls", false, "print only the image URLs")
}

func listGallery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	client, _, err := newSessionClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	var page *api.Page
	if galleryMine {
		page, err = client.MyImages(ctx)
	} else {
		page, err = client.Gallery(ctx)
	}
	if err != nil {
		if api.IsNotAuthenticated(err) {
			return fmt.Errorf("%s (run furryfriends login): %w", interaction.MsgPleaseLoginFirst, err)
		}
		return fmt.Errorf("failed to load gallery: %w", err)
	}

	logrus.Debugf("Gallery returned %d items", len(page.Items))
	for _, flash := range page.Flashes {
		fmt.Fprintln(cmd.ErrOrStderr(), flash)
	}

	if galleryURLs {
		for _, item := range page.Items {
			fmt.Fprintln(cmd.OutOrStdout(), imageLink(item))
		}
		return nil
	}
	return outputTable(cmd.OutOrStdout(), page.Items)
}

func outputTable(out io.Writer, items []api.GalleryItem) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No images found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCAPTION\tURL")
	for _, item := range items {
		caption := strings.TrimSpace(item.Caption)
		if caption == "" {
			caption = interaction.DefaultCaption
		}
		id := item.ID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id, caption, imageLink(item))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal: %d images\n", len(items))
	return nil
}

// imageLink prefers the full-size image over the thumbnail
func imageLink(item api.GalleryItem) string {
	if item.OriginalURL != "" {
		return item.OriginalURL
	}
	return item.ThumbnailURL
}
