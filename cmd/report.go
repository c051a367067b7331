package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/render"
	"github.com/spigell/interview-practice/internal/transcript"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the evaluation of a finished interview",
	Long: `Show the evaluation of a finished interview, either for a session the
backend still knows about (--session-id) or for a saved transcript (--transcript).`,
	Run: func(cmd *cobra.Command, _ []string) {
		runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("session-id", "s", "", "session id of the interview")
	reportCmd.Flags().StringP("transcript", "t", "", "transcript file saved by the interview command")
	reportCmd.MarkFlagsOneRequired("session-id", "transcript")
	reportCmd.MarkFlagsMutuallyExclusive("session-id", "transcript")
}

func runReport(cmd *cobra.Command) {
	logger, config := setup(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient(config, logger)

	sessionID, _ := cmd.Flags().GetString("session-id")
	file, _ := cmd.Flags().GetString("transcript")

	var (
		report *backend.Report
		err    error
	)
	if sessionID != "" {
		report, err = client.Report(ctx, sessionID)
	} else {
		var doc *transcript.Document
		doc, err = transcript.ReadFile(file)
		if err != nil {
			logger.Fatal("reading the transcript", zap.Error(err))
		}
		report, err = client.ReportFromTranscript(ctx, reportRequest(config.Interview.Candidate, doc.Messages))
	}
	if err != nil {
		logger.Fatal("generating the report", zap.String("reason", render.Describe(err)), zap.Error(err))
	}

	fmt.Println(render.Report(report))
}
