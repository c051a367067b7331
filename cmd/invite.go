package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/render"
)

var errNoReceiver = errors.New("no receiver: pass --to or set interview.candidate.email-address")

func newInviteCmd() *cobra.Command {
	invite := &cobra.Command{
		Use:   "invite [cv-id]",
		Short: "Mail a candidate an invitation to interview for a job description",
		Long: `Asks the backend to mail the candidate a link to an interview for the chosen
CV and job description. The receiver defaults to interview.candidate.email-address,
the ids to interview.cv-id and interview.jd-id, and missing ids are chosen interactively.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			to, _ := cmd.Flags().GetString("to")
			jdID, _ := cmd.Flags().GetString("jd-id")

			withClient(func(ctx context.Context, client *backend.Client, logger *zap.Logger) error {
				cvID := viper.GetString("interview.cv-id")
				if len(args) > 0 {
					cvID = args[0]
				}
				if jdID == "" {
					jdID = viper.GetString("interview.jd-id")
				}
				if to == "" {
					to = viper.GetString("interview.candidate.email-address")
				}
				return inviteCandidate(ctx, client, logger, os.Stdout, to, cvID, jdID)
			})
		},
	}
	invite.Flags().String("to", "", "candidate email address")
	invite.Flags().String("jd-id", "", "id of a stored job description")

	return invite
}

func inviteCandidate(ctx context.Context, client *backend.Client, logger *zap.Logger, out io.Writer, receiver, cvID, jdID string) error {
	if strings.TrimSpace(receiver) == "" {
		return errNoReceiver
	}

	var err error
	if strings.TrimSpace(cvID) == "" {
		if cvID, err = selectDocument(ctx, client, backend.CollectionCV, "Choose the candidate's CV"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(jdID) == "" {
		if jdID, err = selectDocument(ctx, client, backend.CollectionJD, "Choose the job description"); err != nil {
			return err
		}
	}

	inv, err := client.SendInvitation(ctx, receiver, cvID, jdID)
	if err != nil {
		return fmt.Errorf("inviting %s: %w", receiver, err)
	}

	logger.Info("invitation sent", zap.String("cv_id", cvID), zap.String("jd_id", jdID))
	notifier := render.Notifier{W: out}
	notifier.Success(fmt.Sprintf("invited %s to interview (%s, %s)", strings.TrimSpace(receiver), cvID, jdID))
	if inv.Message != "" {
		notifier.Info(inv.Message)
	}
	return nil
}
