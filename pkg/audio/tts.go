// Package audio converts a podcast script to speech through the OpenAI
// text-to-speech API. Markdown decoration and timing cues are stripped
// before synthesis so they are never read aloud.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// maxChunkChars is the TTS API's input limit per request.
const maxChunkChars = 4096

var (
	headerRe     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	timingCueRe  = regexp.MustCompile(`\[\d{2}:\d{2}\]`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// CleanScript strips markdown headers, links, emphasis, and timing cues,
// leaving prose the TTS voice can read.
func CleanScript(script string) string {
	text := headerRe.ReplaceAllString(script, "")
	text = linkRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = timingCueRe.ReplaceAllString(text, "")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SplitChunks cuts text into pieces of at most maxChunkChars, preferring
// paragraph boundaries and falling back to sentence boundaries for
// oversized paragraphs.
func SplitChunks(text string, limit int) []string {
	if limit <= 0 {
		limit = maxChunkChars
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		pieces := []string{paragraph}
		if len(paragraph) > limit {
			pieces = splitSentences(paragraph, limit)
		}

		for _, piece := range pieces {
			if current.Len() > 0 && current.Len()+len(piece)+2 > limit {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(piece)
		}
	}
	flush()

	return chunks
}

// splitSentences breaks one oversized paragraph on sentence ends. A single
// sentence longer than the limit is hard-cut.
func splitSentences(paragraph string, limit int) []string {
	var pieces []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			pieces = append(pieces, s)
		}
		current.Reset()
	}

	for _, sentence := range strings.SplitAfter(paragraph, ". ") {
		for len(sentence) > limit {
			flush()
			pieces = append(pieces, strings.TrimSpace(sentence[:limit]))
			sentence = sentence[limit:]
		}
		if current.Len()+len(sentence) > limit {
			flush()
		}
		current.WriteString(sentence)
	}
	flush()

	return pieces
}

const defaultOpenAIBaseURL = "https://api.openai.com"

// Synthesizer turns text into MP3 audio.
type Synthesizer struct {
	APIKey     string
	Model      string
	Voice      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewSynthesizer(apiKey string) *Synthesizer {
	return &Synthesizer{
		APIKey:     apiKey,
		Model:      "tts-1",
		Voice:      "alloy",
		BaseURL:    defaultOpenAIBaseURL,
		HTTPClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Synthesize cleans the script, splits it into API-sized chunks, and
// concatenates the returned MP3 segments.
func (s *Synthesizer) Synthesize(ctx context.Context, script string) ([]byte, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	chunks := SplitChunks(CleanScript(script), maxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("script is empty after cleaning")
	}
	log.Printf("Synthesizing %d audio chunks", len(chunks))

	var audio []byte
	for i, chunk := range chunks {
		segment, err := s.synthesizeChunk(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		audio = append(audio, segment...)
	}
	return audio, nil
}

func (s *Synthesizer) synthesizeChunk(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(speechRequest{Model: s.Model, Input: text, Voice: s.Voice})
	if err != nil {
		return nil, err
	}

	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tts error: %s\n%s", resp.Status, string(msg))
	}
	return io.ReadAll(resp.Body)
}
