package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// VoiceResponse is returned by both capture actions. AudioPath names the
// transient artifact on the backend.
type VoiceResponse struct {
	AudioPath string `json:"audio_path"`
}

type TranscriptionResponse struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// StartVoice starts backend-side microphone capture.
func (c *Client) StartVoice(ctx context.Context) (*VoiceResponse, error) {
	return c.voice(ctx, "start voice capture", actionStart)
}

// StopVoice stops capture and finalizes the audio artifact.
func (c *Client) StopVoice(ctx context.Context) (*VoiceResponse, error) {
	return c.voice(ctx, "stop voice capture", actionStop)
}

func (c *Client) voice(ctx context.Context, op, action string) (*VoiceResponse, error) {
	q := url.Values{}
	q.Set(queryAction, action)

	var resp VoiceResponse
	if err := c.doJSON(ctx, op, http.MethodPost, c.routeURL(pathVoice), q, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// SpeechToText transcribes the artifact at audioPath.
func (c *Client) SpeechToText(ctx context.Context, audioPath string) (*TranscriptionResponse, error) {
	const op = "speech to text"

	if strings.TrimSpace(audioPath) == "" {
		return nil, validationError(op, "audio path is required")
	}

	q := url.Values{}
	q.Set(queryAudioPath, audioPath)

	var resp TranscriptionResponse
	if err := c.doJSON(ctx, op, http.MethodPost, c.routeURL(pathSTT), q, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// DeleteAudio releases the transient audio artifact.
func (c *Client) DeleteAudio(ctx context.Context, audioPath string) error {
	const op = "delete audio"

	if strings.TrimSpace(audioPath) == "" {
		return validationError(op, "audio path is required")
	}

	q := url.Values{}
	q.Set(queryAudioPath, audioPath)

	var resp struct {
		Deleted bool `json:"deleted"`
	}
	if err := c.doJSON(ctx, op, http.MethodDelete, c.routeURL(pathAudio), q, nil, &resp); err != nil {
		return err
	}

	if !resp.Deleted {
		return &Error{Op: op, Kind: KindStatus, Message: "backend reported the audio file was not deleted"}
	}

	return nil
}
