package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/fsm"
	"github.com/spigell/interview-practice/internal/interview"
	"github.com/spigell/interview-practice/internal/logger"
	"github.com/spigell/interview-practice/internal/recording"
	"github.com/spigell/interview-practice/internal/render"
	"github.com/spigell/interview-practice/internal/source"
	"github.com/spigell/interview-practice/internal/timer"
	"github.com/spigell/interview-practice/internal/transcript"
)

const (
	CommandQuit       = ":quit"
	CommandMic        = ":mic"
	CommandReport     = ":report"
	CommandTranscript = ":transcript"
	CommandHelp       = ":help"

	endSessionTimeout = 5 * time.Second
)

var errQuit = errors.New("quit requested")

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive interview session",
	Run: func(_ *cobra.Command, _ []string) {
		runInterview()
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().String("jd-id", "", "id of a stored job description")
	interviewCmd.Flags().String("cv-id", "", "id of a stored cv")
	interviewCmd.Flags().StringP("job-description-file", "f", "", "yaml file with an inline job description")
	interviewCmd.Flags().Int("question-time", timer.DefaultQuestionTime, "seconds per question before the time-up notice")
	interviewCmd.Flags().StringP("transcript-dir", "o", "", "save the transcript into this directory on exit")

	viper.BindPFlag("interview.jd-id", interviewCmd.Flags().Lookup("jd-id"))
	viper.BindPFlag("interview.cv-id", interviewCmd.Flags().Lookup("cv-id"))
	viper.BindPFlag("interview.job-description-file", interviewCmd.Flags().Lookup("job-description-file"))
	viper.BindPFlag("interview.question-time", interviewCmd.Flags().Lookup("question-time"))
	viper.BindPFlag("transcript.dir", interviewCmd.Flags().Lookup("transcript-dir"))
}

// session wires the interview controller to the terminal.
type session struct {
	logger   *zap.Logger
	config   *Config
	client   *backend.Client
	ctrl     *interview.Controller
	recorder *recording.Controller

	stopwatch *timer.Stopwatch
	countdown *timer.Countdown

	out      io.Writer
	notifier render.Notifier
	printed  int
}

func runInterview() {
	logger, config := setup(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient(config, logger)

	welcome, err := source.Load(source.Source{
		Name:  "welcome message",
		Value: config.Interview.Welcome,
		File:  config.Interview.WelcomeFile,
	})
	if err != nil {
		logger.Fatal("loading the welcome message", zap.Error(err))
	}

	req, err := startRequest(ctx, client, config.Interview)
	if err != nil {
		logger.Fatal("preparing the interview", zap.Error(err))
	}

	s := newSession(config, client, logger, welcome, os.Stdout)
	s.printNew()

	if err := s.start(ctx, req); err != nil {
		if errors.Is(err, errQuit) {
			return
		}
		logger.Fatal("starting the interview", zap.Error(err))
	}

	timersCtx, stopTimers := context.WithCancel(ctx)
	go s.stopwatch.Run(timersCtx, timer.NewTicker(time.Second))
	go s.countdown.Run(timersCtx, timer.NewTicker(time.Second))

	err = s.loop(ctx)
	stopTimers()
	s.finish(ctx)

	if err != nil && !errors.Is(err, errQuit) {
		logger.Fatal("interview aborted", zap.Error(err))
	}
}

func newSession(config *Config, client *backend.Client, log *zap.Logger, welcome string, out io.Writer) *session {
	s := &session{
		logger:   log,
		config:   config,
		client:   client,
		out:      out,
		notifier: render.Notifier{W: out},
	}

	s.stopwatch = timer.NewStopwatch(nil)
	s.countdown = timer.NewCountdown(config.Interview.QuestionTime, func() {
		s.notifier.Info(render.TimeUpNotice)
	})

	s.ctrl = interview.NewController(client, interview.Options{
		Logger:   log,
		Notifier: s.notifier,
		Welcome:  welcome,
		OnChange: s.syncCountdown,
	})
	s.recorder = recording.New(client, s.ctrl, log)

	return s
}

// syncCountdown times the current question. Question numbers double as
// activation tokens so each new question restarts the countdown.
func (s *session) syncCountdown(state interview.State) {
	if state.Started() && state.CurrentQuestion > 0 && !state.Complete() {
		s.countdown.Activate(uint64(state.CurrentQuestion))
		return
	}
	s.countdown.Deactivate()
}

func (s *session) start(ctx context.Context, req backend.StartRequest) error {
	for {
		err := s.ctrl.StartInterview(ctx, req)
		if err == nil {
			break
		}

		retry := promptui.Prompt{Label: "Retry", IsConfirm: true}
		if _, err := retry.Run(); err != nil {
			return errQuit
		}
	}

	s.stopwatch.Start()
	// The opening reply replaced the welcome text.
	s.printed = 0
	s.printNew()
	return nil
}

func (s *session) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return errQuit
		}

		fmt.Fprintln(s.out, render.StatusLine(s.status()))

		label := "Answer"
		if s.recorder.Recording() {
			label = "Recording, type " + CommandMic + " to stop"
		}

		prompt := promptui.Prompt{Label: label}
		input, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errQuit
			}
			return fmt.Errorf("reading input: %w", err)
		}

		if err := s.handle(ctx, strings.TrimSpace(input)); err != nil {
			return err
		}
	}
}

func (s *session) handle(ctx context.Context, input string) error {
	switch input {
	case "":
		return nil
	case CommandQuit, ":q":
		return errQuit
	case CommandHelp:
		s.notifier.Info(fmt.Sprintf("commands: %s %s %s %s", CommandMic, CommandReport, CommandTranscript, CommandQuit))
	case CommandMic:
		s.toggleMic(ctx)
	case CommandReport:
		s.report(ctx)
	case CommandTranscript:
		fmt.Fprintln(s.out, render.Transcript(s.ctrl.Messages()))
	default:
		s.answer(ctx, input)
	}
	return nil
}

func (s *session) answer(ctx context.Context, text string) {
	err := s.ctrl.SubmitAnswer(ctx, transcript.RoleUser, text)
	switch {
	case errors.Is(err, interview.ErrLocked):
		s.notifier.Info("please wait, the interviewer is still answering")
	case errors.Is(err, interview.ErrNotStarted):
		s.notifier.Info("the interview has not started yet")
	}
	s.printNew()
}

func (s *session) toggleMic(ctx context.Context) {
	if !s.recorder.MicEnabled() {
		s.notifier.Info("the microphone is unavailable right now")
		return
	}

	res, err := s.recorder.Toggle(ctx)
	switch {
	case errors.Is(err, recording.ErrEmptyTranscript):
		s.notifier.Info("no speech was recognized, try again")
	case errors.Is(err, recording.ErrBusy), errors.Is(err, interview.ErrLocked):
		s.notifier.Info("please wait, the previous request is still running")
	case errors.Is(err, recording.ErrSubmit):
		// already reported by the session
	case err != nil:
		s.notifier.Error("recording", err)
	}
	if err != nil {
		s.printNew()
		return
	}

	if res.CleanupErr != nil {
		s.logger.Warn("audio artifact was left on the backend", logger.AudioFields(res.AudioPath)...)
	}

	if res.State == fsm.RecordingActive {
		s.notifier.Info("recording started, type " + CommandMic + " again to stop")
		return
	}
	s.printNew()
}

func (s *session) report(ctx context.Context) {
	state := s.ctrl.Snapshot()
	if !state.Complete() {
		s.notifier.Info("the report is available after the last question")
		return
	}

	report, err := s.client.Report(ctx, state.SessionID)
	if err != nil {
		s.logger.Debug("report by session failed, sending the transcript", zap.Error(err))
		report, err = s.client.ReportFromTranscript(ctx, reportRequest(s.config.Interview.Candidate, state.Messages))
	}
	if err != nil {
		s.notifier.Error("generate report", err)
		return
	}

	fmt.Fprintln(s.out, render.Report(report))
}

func (s *session) status() render.Status {
	state := s.ctrl.Snapshot()

	st := render.Status{
		Current:   state.DisplayQuestion(),
		Total:     state.TotalQuestions,
		Elapsed:   s.stopwatch.Format(),
		Locked:    state.Locked,
		Recording: s.recorder.Recording(),
		Complete:  state.Complete(),
	}
	if s.countdown.Active() && state.CurrentQuestion > 0 {
		st.Countdown = s.countdown.Format()
		st.LowTime = s.countdown.LowTime()
	}
	return st
}

func (s *session) printNew() {
	msgs := s.ctrl.Messages()
	for _, m := range transcript.Since(msgs, s.printed) {
		fmt.Fprintln(s.out, render.Message(m))
	}
	s.printed = len(msgs)
}

// finish tears the session down: it drops any unfinished recording, saves the
// transcript and asks the backend to forget the session.
func (s *session) finish(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), endSessionTimeout)
	defer cancel()

	if err := s.recorder.Abort(cleanupCtx); err != nil {
		s.logger.Warn("aborting the recording", zap.Error(err))
	}

	s.stopwatch.Stop()
	state := s.ctrl.Snapshot()
	s.ctrl.Close()

	if !state.Started() {
		return
	}

	if dir := s.config.Transcript.Dir; dir != "" {
		doc := &transcript.Document{
			SessionID:       state.SessionID,
			CurrentQuestion: state.CurrentQuestion,
			TotalQuestions:  state.TotalQuestions,
			Elapsed:         s.stopwatch.Elapsed(),
			Messages:        state.Messages,
		}
		path, err := doc.WriteFile(dir, s.config.Transcript.Format)
		if err != nil {
			s.notifier.Error("save transcript", err)
		} else {
			s.notifier.Success("transcript saved to " + path)
		}
	}

	if err := s.client.EndSession(cleanupCtx, state.SessionID); err != nil {
		s.logger.Warn("ending the session", append(logger.SessionFields(state.SessionID, 0, 0), zap.Error(err))...)
	}
}

// startRequest resolves what the interview is about: an inline job
// description file, configured ids, or ids picked from the backend's lists.
func startRequest(ctx context.Context, client *backend.Client, cfg *InterviewConfig) (backend.StartRequest, error) {
	if cfg.JobDescriptionFile != "" {
		jd, err := source.JobDescription(cfg.JobDescriptionFile)
		if err != nil {
			return backend.StartRequest{}, err
		}
		return backend.StartRequest{JobDescription: jd}, nil
	}

	req := backend.StartRequest{JDID: cfg.JDID, CVID: cfg.CVID}

	var err error
	if req.JDID == "" {
		if req.JDID, err = selectDocument(ctx, client, backend.CollectionJD, "Choose a job description"); err != nil {
			return req, err
		}
	}
	if req.CVID == "" {
		if req.CVID, err = selectDocument(ctx, client, backend.CollectionCV, "Choose a CV"); err != nil {
			return req, err
		}
	}

	return req, req.Validate()
}

func selectDocument(ctx context.Context, client *backend.Client, collection backend.Collection, label string) (string, error) {
	docs, err := client.ListDocuments(ctx, collection)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", collection, err)
	}
	if docs.Len() == 0 {
		return "", fmt.Errorf("no %s uploaded yet, use '%s %s upload <file>' first", collection, app, collection)
	}

	prompt := promptui.Select{
		Label: label,
		Items: docs.Labels(),
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}

	return docs.Items[idx].ID, nil
}

func reportRequest(candidate backend.Candidate, msgs []transcript.Message) backend.ReportRequest {
	history := make([]backend.ConversationMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, backend.ConversationMessage{Role: string(m.Role), Content: m.Content})
	}
	return backend.ReportRequest{Candidate: candidate, ConversationHistory: history}
}
