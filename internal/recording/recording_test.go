package recording

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/fsm"
	"github.com/spigell/interview-practice/internal/interview"
	"github.com/spigell/interview-practice/internal/transcript"
)

type fakeSpeech struct {
	mu sync.Mutex

	startPath string
	stopPath  string
	text      string

	startErr  error
	stopErr   error
	sttErr    error
	deleteErr error

	sttPaths []string
	deleted  []string
	steps    []string
}

func (f *fakeSpeech) step(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, name)
}

func (f *fakeSpeech) StartVoice(context.Context) (*backend.VoiceResponse, error) {
	f.step("start")
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &backend.VoiceResponse{AudioPath: f.startPath}, nil
}

func (f *fakeSpeech) StopVoice(context.Context) (*backend.VoiceResponse, error) {
	f.step("stop")
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	return &backend.VoiceResponse{AudioPath: f.stopPath}, nil
}

func (f *fakeSpeech) SpeechToText(_ context.Context, path string) (*backend.TranscriptionResponse, error) {
	f.step("stt")
	f.sttPaths = append(f.sttPaths, path)
	if f.sttErr != nil {
		return nil, f.sttErr
	}
	return &backend.TranscriptionResponse{Role: "user", Text: f.text}, nil
}

func (f *fakeSpeech) DeleteAudio(ctx context.Context, path string) error {
	f.step("delete")
	if ctx.Err() != nil {
		return ctx.Err()
	}
	f.deleted = append(f.deleted, path)
	return f.deleteErr
}

type qna struct {
	answers []string
	err     error
}

func (q *qna) StartInterview(context.Context, backend.StartRequest) (*backend.StartResponse, error) {
	return &backend.StartResponse{
		SessionID: "S1",
		Reply:     backend.Reply{"Welcome"},
		Question:  &backend.Progress{CurrentIdx: 0, Total: 3},
	}, nil
}

func (q *qna) SubmitAnswer(_ context.Context, _ string, answer string) (*backend.AnswerResponse, error) {
	q.answers = append(q.answers, answer)
	if q.err != nil {
		return nil, q.err
	}
	return &backend.AnswerResponse{
		Reply:    backend.Reply{"Thanks"},
		Question: &backend.Progress{CurrentIdx: 1, Total: 3},
	}, nil
}

func newSession(t *testing.T, q *qna) *interview.Controller {
	t.Helper()
	c := interview.NewController(q, interview.Options{})
	require.NoError(t, c.StartInterview(context.Background(), backend.StartRequest{JDID: "JD-001", CVID: "CV-001"}))
	return c
}

func TestToggleRoundTrip(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/start.wav", stopPath: "/tmp/final.wav", text: "  I like Go  "}
	q := &qna{}
	session := newSession(t, q)
	rec := New(speech, session, nil)

	require.True(t, rec.MicEnabled())

	res, err := rec.Toggle(context.Background())
	require.NoError(t, err)
	require.Equal(t, fsm.RecordingActive, res.State)
	require.Equal(t, "/tmp/start.wav", res.AudioPath)
	require.True(t, rec.Recording())
	require.True(t, session.Locked())
	require.True(t, rec.MicEnabled())

	res, err = rec.Toggle(context.Background())
	require.NoError(t, err)
	require.Equal(t, "I like Go", res.Transcript)
	require.Equal(t, "/tmp/final.wav", res.AudioPath)
	require.NoError(t, res.CleanupErr)

	require.Equal(t, fsm.RecordingIdle, rec.State())
	require.False(t, session.Locked())
	require.Equal(t, []string{"start", "stop", "stt", "delete"}, speech.steps)
	require.Equal(t, []string{"/tmp/final.wav"}, speech.sttPaths)
	require.Equal(t, []string{"/tmp/final.wav"}, speech.deleted)
	require.Equal(t, []string{"I like Go"}, q.answers)

	msgs := session.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, transcript.RoleUser, msgs[1].Role)
	require.Equal(t, "I like Go", msgs[1].Content)
}

func TestStopFallsBackToStartPath(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/start.wav", text: "answer"}
	rec := New(speech, newSession(t, &qna{}), nil)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)
	_, err = rec.Toggle(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"/tmp/start.wav"}, speech.sttPaths)
	require.Equal(t, []string{"/tmp/start.wav"}, speech.deleted)
}

func TestCleanupRunsWhenTranscriptionFails(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/a.wav", sttErr: errors.New("stt down")}
	q := &qna{}
	session := newSession(t, q)
	rec := New(speech, session, nil)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	res, err := rec.Toggle(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"/tmp/a.wav"}, speech.deleted)
	require.NoError(t, res.CleanupErr)

	require.Equal(t, fsm.RecordingIdle, rec.State())
	require.False(t, session.Locked())
	require.Empty(t, q.answers)
	require.Len(t, session.Messages(), 1)
}

func TestCleanupRunsWhenSubmitFails(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/a.wav", text: "answer"}
	q := &qna{err: errors.New("backend down")}
	session := newSession(t, q)
	rec := New(speech, session, nil)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	_, err = rec.Toggle(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"/tmp/a.wav"}, speech.deleted)
	require.False(t, session.Locked())
	// The spoken answer stays in the log like a typed one would.
	require.Len(t, session.Messages(), 2)
}

func TestEmptyTranscriptIsRejected(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/a.wav", text: "   "}
	q := &qna{}
	rec := New(speech, newSession(t, q), nil)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	_, err = rec.Toggle(context.Background())
	require.ErrorIs(t, err, ErrEmptyTranscript)
	require.Empty(t, q.answers)
	require.Equal(t, []string{"/tmp/a.wav"}, speech.deleted)
}

func TestStartFailureReleasesLock(t *testing.T) {
	speech := &fakeSpeech{startErr: errors.New("no microphone")}
	session := newSession(t, &qna{})
	rec := New(speech, session, nil)

	res, err := rec.Toggle(context.Background())
	require.Error(t, err)
	require.Equal(t, fsm.RecordingIdle, res.State)
	require.Equal(t, fsm.RecordingIdle, rec.State())
	require.False(t, session.Locked())
	require.Empty(t, speech.deleted)

	speech.startErr = nil
	_, err = rec.Toggle(context.Background())
	require.NoError(t, err)
	require.True(t, rec.Recording())
}

func TestDeleteFailureIsReportedNotReturned(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	speech := &fakeSpeech{startPath: "/tmp/a.wav", text: "answer", deleteErr: errors.New("gone")}
	rec := New(speech, newSession(t, &qna{}), zap.New(core))

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	res, err := rec.Toggle(context.Background())
	require.NoError(t, err)
	require.EqualError(t, res.CleanupErr, "gone")

	entries := observed.FilterMessage("deleting audio artifact").All()
	require.Len(t, entries, 1)
	require.Equal(t, "/tmp/a.wav", entries[0].ContextMap()["audio_path"])
}

func TestCleanupSurvivesCancelledContext(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/a.wav", sttErr: context.Canceled}
	rec := New(speech, newSession(t, &qna{}), nil)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := rec.Toggle(ctx)
	require.Error(t, err)
	require.NoError(t, res.CleanupErr)
	require.Equal(t, []string{"/tmp/a.wav"}, speech.deleted)
}

func TestMicDisabledWhileSessionLockedOrNotStarted(t *testing.T) {
	notStarted := interview.NewController(&qna{}, interview.Options{})
	rec := New(&fakeSpeech{}, notStarted, nil)
	require.False(t, rec.MicEnabled())

	_, err := rec.Toggle(context.Background())
	require.ErrorIs(t, err, interview.ErrNotStarted)

	session := newSession(t, &qna{})
	hold, err := session.Acquire()
	require.NoError(t, err)
	defer hold.Release()

	rec = New(&fakeSpeech{}, session, nil)
	require.False(t, rec.MicEnabled())

	_, err = rec.Toggle(context.Background())
	require.ErrorIs(t, err, interview.ErrLocked)
	require.Equal(t, fsm.RecordingIdle, rec.State())
}

type micObservation struct {
	state fsm.RecordingState
	mic   bool
}

func TestSessionCallbacksMayQueryRecorder(t *testing.T) {
	var (
		rec  *Controller
		seen []micObservation
	)
	session := interview.NewController(&qna{}, interview.Options{OnChange: func(interview.State) {
		if rec != nil {
			seen = append(seen, micObservation{state: rec.State(), mic: rec.MicEnabled()})
		}
	}})
	require.NoError(t, session.StartInterview(context.Background(), backend.StartRequest{JDID: "JD-001", CVID: "CV-001"}))

	rec = New(&fakeSpeech{startPath: "/tmp/a.wav", text: "answer"}, session, nil)

	done := make(chan error, 1)
	go func() {
		if _, err := rec.Toggle(context.Background()); err != nil {
			done <- err
			return
		}
		_, err := rec.Toggle(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("toggle did not return while a session callback queried the recorder")
	}

	require.GreaterOrEqual(t, len(seen), 3)
	require.Equal(t, micObservation{state: fsm.RecordingIdle, mic: false}, seen[0])
	for _, obs := range seen[1 : len(seen)-1] {
		require.Equal(t, micObservation{state: fsm.RecordingTranscribing, mic: false}, obs)
	}
	require.Equal(t, micObservation{state: fsm.RecordingIdle, mic: true}, seen[len(seen)-1])
}

func TestToggleWhileTranscribingIsBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	speech := &blockingSpeech{fakeSpeech: fakeSpeech{startPath: "/tmp/a.wav", text: "answer"}, entered: entered, release: release}
	rec := New(speech, newSession(t, &qna{}), nil)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := rec.Toggle(context.Background())
		done <- err
	}()
	<-entered

	require.Equal(t, fsm.RecordingTranscribing, rec.State())
	require.False(t, rec.MicEnabled())
	_, err = rec.Toggle(context.Background())
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, fsm.RecordingIdle, rec.State())
}

type blockingSpeech struct {
	fakeSpeech
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSpeech) SpeechToText(ctx context.Context, path string) (*backend.TranscriptionResponse, error) {
	close(b.entered)
	<-b.release
	return b.fakeSpeech.SpeechToText(ctx, path)
}

func TestAbortDeletesWithoutSubmitting(t *testing.T) {
	speech := &fakeSpeech{startPath: "/tmp/a.wav", stopPath: "/tmp/final.wav", text: "answer"}
	q := &qna{}
	session := newSession(t, q)
	rec := New(speech, session, nil)

	require.NoError(t, rec.Abort(context.Background()))
	require.Empty(t, speech.steps)

	_, err := rec.Toggle(context.Background())
	require.NoError(t, err)

	require.NoError(t, rec.Abort(context.Background()))
	require.Equal(t, []string{"start", "stop", "delete"}, speech.steps)
	require.Equal(t, []string{"/tmp/final.wav"}, speech.deleted)
	require.Empty(t, q.answers)
	require.Equal(t, fsm.RecordingIdle, rec.State())
	require.False(t, session.Locked())
}
