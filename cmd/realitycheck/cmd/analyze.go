package cmd

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/dashboard"
	"github.com/factchecker/realitycheck/internal/models"
	"github.com/factchecker/realitycheck/internal/tui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze one file or text in the terminal",
	Long: `Run a single detector card in the terminal: the file is "uploaded",
then analyzed, and the verdict is shown with its confidence.

Examples:
  realitycheck analyze --kind video clip.mp4
  realitycheck analyze --kind image photo.png
  realitycheck analyze --kind text --text "Breaking: ..."
  cat article.html | realitycheck analyze --kind text -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("kind", "", "detector kind: video, image, audio or text")
	analyzeCmd.Flags().String("text", "", "text to analyze (text kind)")
	analyzeCmd.MarkFlagRequired("kind")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	// Info logs would tear the TUI frame.
	if viper.GetString("log_level") == "" {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := models.ParseInputKind(kindFlag)
	if err != nil {
		return err
	}
	detector, _ := dashboard.Lookup(kind)

	provider, err := analysis.NewProvider(&cfg.Analysis)
	if err != nil {
		return fmt.Errorf("creating analysis provider: %w", err)
	}

	notices := make(chan models.Notice, 16)
	ctrl := card.New(kind, provider, card.Options{
		UploadInterval:  cfg.Upload.Interval,
		UploadStep:      cfg.Upload.Step,
		AnalysisTimeout: cfg.Analysis.Timeout,
		Notifier: card.NotifierFunc(func(n models.Notice) {
			select {
			case notices <- n:
			default:
			}
		}),
	})
	defer ctrl.Close()

	if kind == models.KindText {
		text, _ := cmd.Flags().GetString("text")
		if text == "" && len(args) == 1 {
			text, err = readText(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
		}
		if err := ctrl.SetText(text); err != nil {
			return err
		}
	} else {
		if len(args) != 1 {
			return fmt.Errorf("a %s file is required", kind)
		}
		file, err := readFile(args[0], cfg.Upload.MaxBytes)
		if err != nil {
			return err
		}
		if err := ctrl.SelectFile(file); err != nil {
			return err
		}
	}

	final, err := tea.NewProgram(tui.NewModel(detector, ctrl, notices)).Run()
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	m := final.(tui.Model)
	if err := m.Err(); err != nil {
		return err
	}
	if snap := m.Snapshot(); snap.Phase == card.PhaseFailed {
		return fmt.Errorf("analysis failed: %s", snap.Analysis.Reason)
	}
	return nil
}

func readFile(path string, maxBytes int64) (models.FileInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.FileInput{}, fmt.Errorf("reading file: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return models.FileInput{}, fmt.Errorf("file too large: %d bytes (limit %d)", info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.FileInput{}, fmt.Errorf("reading file: %w", err)
	}

	return models.FileInput{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEHint: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:     data,
	}, nil
}

func readText(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return string(data), nil
}
