package models

import "strconv"

// TranscriptionResult is the immutable outcome of transcribing one upload.
type TranscriptionResult struct {
	Text     string
	Duration float64 // seconds
}

// DurationString renders the duration to one decimal place, the wire format
// used by the /asr response and the transcribed CSV.
func (r TranscriptionResult) DurationString() string {
	return strconv.FormatFloat(r.Duration, 'f', 1, 64)
}

// TranscribeResponse is the JSON body returned by POST /asr.
type TranscribeResponse struct {
	Transcription string `json:"transcription"`
	Duration      string `json:"duration"`
}

// ErrorResponse is the JSON body returned by the transcription service on
// client and processing errors.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
