package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/interaction"
	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

// progressThreshold is the smallest file that gets a terminal progress bar
const progressThreshold = 100 * 1024

var (
	uploadCaption    string
	uploadNoProgress bool
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file-path>",
	Short: "Upload a pet photo",
	Long: `Upload an image to the gallery as the logged-in user.
The file must be an image (JPG, PNG, GIF, BMP, WebP) of at most 10MB.

Examples:
  furryfriends upload rex.jpg
  furryfriends upload rex.jpg --caption "Rex at the beach"
  furryfriends upload rex.jpg --no-progress`,
	Args: cobra.ExactArgs(1),
	RunE: uploadFile,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadCaption, "caption", "m", "", "caption shown under the photo")
	uploadCmd.Flags().BoolVar(&uploadNoProgress, "no-progress", false, "disable progress bar")
}

func uploadFile(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	filePath := args[0]

	candidate, err := interaction.CandidateFromPath(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	switch err := interaction.ValidateCandidate(candidate, cfg.Upload.MaxBytes); {
	case errors.Is(err, interaction.ErrFileTooLarge):
		return fmt.Errorf("%s is %s: %w", candidate.Name, humanize.IBytes(uint64(candidate.Size)), err)
	case errors.Is(err, interaction.ErrUnsupportedType):
		return fmt.Errorf("%s is %s: %w", candidate.Name, candidate.MediaType, err)
	}

	client, userData, err := newSessionClient(cfg)
	if err != nil {
		return err
	}

	req := api.UploadRequest{
		Path:        candidate.Path,
		Caption:     uploadCaption,
		ContentType: candidate.MediaType,
	}

	// Wrap upload body with progress bar (if enabled, not in quiet mode, and file is large enough)
	var progress *utils.ProgressReader
	if !uploadNoProgress && !quiet && candidate.Size > progressThreshold {
		req.Wrap = func(r io.Reader, size int64) io.Reader {
			progress = utils.NewProgressReader(r, size, fmt.Sprintf("Uploading %s", filepath.Base(filePath)))
			return progress
		}
	}

	logrus.Infof("Uploading %s (%d bytes)", candidate.Path, candidate.Size)

	// the HTTP client's timeout bounds the post
	outcome, err := client.Upload(context.Background(), req)
	if progress != nil {
		progress.Close()
	}
	// session cookies may have been refreshed even when the post failed
	saveSession(client, userData)

	if err != nil {
		if api.IsNotAuthenticated(err) {
			return fmt.Errorf("%s: %w", interaction.MsgPleaseLoginFirst, err)
		}
		return fmt.Errorf("failed to upload file: %w", err)
	}
	if !outcome.Success {
		text := interaction.MsgUploadFailed
		if outcome.Message != "" {
			text = outcome.Message
		}
		return errors.New(text)
	}

	logrus.Infof("Successfully uploaded %s", candidate.Path)
	fmt.Fprintln(cmd.OutOrStdout(), interaction.MsgUploadSucceeded)
	return nil
}
