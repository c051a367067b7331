package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(nil, srv.URL)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestReplyUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Reply
	}{
		{name: "single string", raw: `"Welcome"`, want: Reply{"Welcome"}},
		{name: "array", raw: `["Nice", "Next question"]`, want: Reply{"Nice", "Next question"}},
		{name: "empty array", raw: `[]`, want: Reply{}},
		{name: "null", raw: `null`, want: nil},
		{name: "empty string", raw: `""`, want: nil},
		{name: "blank string", raw: `"  \n "`, want: nil},
		{name: "blank segments dropped", raw: `["", "Q2", "  "]`, want: Reply{"Q2"}},
		{name: "only blank segments", raw: `["", " "]`, want: Reply{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var r Reply
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &r))
			require.Equal(t, tc.want, r)
		})
	}

	var r Reply
	require.Error(t, json.Unmarshal([]byte(`42`), &r))
}

func TestStartInterviewSendsIdentifiers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/routes/qna/start", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "JD-001", body["jd_id"])
		require.Equal(t, "CV-001", body["cv_id"])
		_, hasJD := body["job_description"]
		require.False(t, hasJD)

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": "S1",
			"role":       "ai",
			"reply":      "Welcome",
			"question":   map[string]int{"current_idx": 0, "total": 3},
		})
	})

	resp, err := client.StartInterview(context.Background(), StartRequest{JDID: "JD-001", CVID: "CV-001"})
	require.NoError(t, err)
	require.Equal(t, "S1", resp.SessionID)
	require.Equal(t, Reply{"Welcome"}, resp.Reply)
	require.Equal(t, &Progress{CurrentIdx: 0, Total: 3}, resp.Question)
}

func TestStartInterviewValidatesLocally(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.StartInterview(context.Background(), StartRequest{JDID: "JD-001"})
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
	require.False(t, called)
}

func TestStartInterviewRejectsEmptySession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"session_id": nil, "error": nil})
	})

	_, err := client.StartInterview(context.Background(), StartRequest{JobDescription: &JobDescription{Title: "Go"}})
	require.Equal(t, KindDecode, KindOf(err))
}

func TestSubmitAnswerStatusErrorCarriesBackendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/routes/qna/answer", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, map[string]any{"question": nil, "error": "session not found"})
	})

	_, err := client.SubmitAnswer(context.Background(), "S1", "hello")
	require.Error(t, err)

	var be *Error
	require.True(t, errors.As(err, &be))
	require.Equal(t, KindStatus, be.Kind)
	require.Equal(t, http.StatusBadRequest, be.Status)
	require.Equal(t, "session not found", be.Message)
	require.Contains(t, err.Error(), "submit answer")
}

func TestErrorMessageFallsBackToDetailAndStatus(t *testing.T) {
	require.Equal(t, "boom", errorMessage("500 Internal Server Error", []byte(`{"detail":"boom"}`)))
	require.Equal(t, "500 Internal Server Error", errorMessage("500 Internal Server Error", []byte(`not json`)))
	require.Contains(t, errorMessage("422", []byte(`{"detail":[{"msg":"field required"}]}`)), "field required")
}

func TestNetworkErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(nil, url)
	_, err := client.SubmitAnswer(context.Background(), "S1", "hello")
	require.Equal(t, KindNetwork, KindOf(err))
}

func TestGzipResponseIsDecoded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"role":"ai","reply":["a","b"],"question":{"current_idx":2,"total":5}}`))
		_ = gz.Close()
	})

	resp, err := client.SubmitAnswer(context.Background(), "S1", "hello")
	require.NoError(t, err)
	require.Equal(t, Reply{"a", "b"}, resp.Reply)
	require.Equal(t, 2, resp.Question.CurrentIdx)
}

func TestSpeechEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/routes/speech/voice":
			require.Equal(t, http.MethodPost, r.Method)
			writeJSON(w, http.StatusOK, map[string]string{"audio_path": "audio_" + r.URL.Query().Get("action") + ".wav"})
		case "/routes/speech/stt":
			require.Equal(t, "audio_stop.wav", r.URL.Query().Get("audio_path"))
			writeJSON(w, http.StatusOK, map[string]string{"role": "user", "text": "my spoken answer"})
		case "/routes/speech/audio":
			require.Equal(t, http.MethodDelete, r.Method)
			writeJSON(w, http.StatusOK, map[string]bool{"deleted": r.URL.Query().Get("audio_path") == "audio_stop.wav"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	started, err := client.StartVoice(ctx)
	require.NoError(t, err)
	require.Equal(t, "audio_start.wav", started.AudioPath)

	stopped, err := client.StopVoice(ctx)
	require.NoError(t, err)
	require.Equal(t, "audio_stop.wav", stopped.AudioPath)

	text, err := client.SpeechToText(ctx, stopped.AudioPath)
	require.NoError(t, err)
	require.Equal(t, "my spoken answer", text.Text)

	require.NoError(t, client.DeleteAudio(ctx, stopped.AudioPath))
	require.Error(t, client.DeleteAudio(ctx, "other.wav"))
	require.Equal(t, KindValidation, KindOf(client.DeleteAudio(ctx, " ")))
}

func TestRoutesPrefixIsConfigurable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/report", r.URL.Path)
		require.Equal(t, "S9", r.URL.Query().Get("session_id"))
		writeJSON(w, http.StatusOK, Report{Passed: true, OverallScore: 90, Pros: []string{"clear"}})
	})
	client.RoutesPrefix = "api/"

	report, err := client.Report(context.Background(), "S9")
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Equal(t, 90, report.OverallScore)
}

func TestReportFromTranscriptRequiresHistory(t *testing.T) {
	client := New(nil, "http://127.0.0.1:0")
	_, err := client.ReportFromTranscript(context.Background(), ReportRequest{})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestListDocumentsDecodesDataItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cv", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"id": "CV-001", "original_filename": "jane.pdf", "content_type": "application/pdf"},
			{"id": 7, "filename": "john.docx"},
		}})
	})

	docs, err := client.ListDocuments(context.Background(), CollectionCV)
	require.NoError(t, err)
	require.Equal(t, 2, docs.Len())
	require.Equal(t, "jane.pdf", docs.FindByID("CV-001").Name())
	require.Equal(t, "john.docx", docs.FindByID("7").Name())
	require.Equal(t, []string{"CV-001 jane.pdf", "7 john.docx"}, docs.Labels())
	require.Nil(t, docs.FindByID("missing"))
}

func TestUploadDocumentValidatesExtension(t *testing.T) {
	var received string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/jd", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		received = header.Filename + ":" + string(data)
		writeJSON(w, http.StatusOK, map[string]string{"id": "JD-9", "filename": header.Filename, "status": "uploaded"})
	})

	_, err := client.UploadDocument(context.Background(), CollectionJD, "notes.txt", strings.NewReader("x"))
	require.Equal(t, KindValidation, KindOf(err))
	require.Empty(t, received)

	doc, err := client.UploadDocument(context.Background(), CollectionJD, "/tmp/role.PDF", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	require.Equal(t, "JD-9", doc.ID)
	require.Equal(t, "role.PDF:pdf-bytes", received)
}

func TestDownloadAndDeleteDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cv/CV-001", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Disposition", `attachment; filename="jane.pdf"`)
			_, _ = w.Write([]byte("%PDF"))
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]string{"id": "CV-001", "status": "deleted"})
		}
	})

	var buf bytes.Buffer
	name, err := client.DownloadDocument(context.Background(), CollectionCV, "CV-001", &buf)
	require.NoError(t, err)
	require.Equal(t, "jane.pdf", name)
	require.Equal(t, "%PDF", buf.String())

	require.NoError(t, client.DeleteDocument(context.Background(), CollectionCV, "CV-001"))
	require.Equal(t, KindValidation, KindOf(client.DeleteDocument(context.Background(), Collection("x"), "1")))
}

func TestEndSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/routes/qna/S1", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "error": nil})
	})

	require.NoError(t, client.EndSession(context.Background(), "S1"))
}

func TestSendInvitation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/send_confirmation", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "alex@example.com", q.Get("receiver"))
		require.Equal(t, "CV-001", q.Get("cv_id"))
		require.Equal(t, "JD-001", q.Get("jd_id"))
		writeJSON(w, http.StatusOK, map[string]string{"message": "sent"})
	})

	inv, err := client.SendInvitation(context.Background(), " alex@example.com ", "CV-001", "JD-001")
	require.NoError(t, err)
	require.Equal(t, "sent", inv.Message)
}

func TestSendInvitationValidatesLocally(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		writeJSON(w, http.StatusOK, map[string]string{"message": "sent"})
	})

	tests := []struct {
		name     string
		receiver string
		cvID     string
		jdID     string
	}{
		{name: "missing receiver", receiver: " ", cvID: "CV-001", jdID: "JD-001"},
		{name: "malformed receiver", receiver: "alex", cvID: "CV-001", jdID: "JD-001"},
		{name: "missing cv", receiver: "alex@example.com", cvID: "", jdID: "JD-001"},
		{name: "missing jd", receiver: "alex@example.com", cvID: "CV-001", jdID: " "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.SendInvitation(context.Background(), tc.receiver, tc.cvID, tc.jdID)
			require.Equal(t, KindValidation, KindOf(err))
		})
	}
	require.False(t, called)
}

func TestSendInvitationSurfacesBackendError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "smtp unavailable"})
	})
	client.MailPrefix = ""

	_, err := client.SendInvitation(context.Background(), "alex@example.com", "CV-001", "JD-001")
	require.Equal(t, KindStatus, KindOf(err))
	require.Contains(t, err.Error(), "smtp unavailable")
}
