package speech

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// VoskRecognizer implements Recognizer with an offline Vosk model.
type VoskRecognizer struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

type voskResult struct {
	Text string `json:"text"`
}

// NewVosk loads the model directory at modelPath.
func NewVosk(modelPath string, sampleRate float64) (*VoskRecognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("vosk model not found at %s: %w", modelPath, err)
	}

	// Keep Kaldi quiet, we log ourselves
	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load vosk model: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, sampleRate)
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}

	return &VoskRecognizer{model: model, recognizer: rec}, nil
}

// Transcribe feeds one utterance and returns the final hypothesis.
func (v *VoskRecognizer) Transcribe(samples []float32) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return "", fmt.Errorf("vosk recognizer is closed")
	}

	if v.recognizer.AcceptWaveform(toPCM16(samples)) < 0 {
		v.recognizer.Reset()
		return "", fmt.Errorf("vosk rejected waveform")
	}
	raw := v.recognizer.FinalResult()
	v.recognizer.Reset()

	return parseVoskResult(raw)
}

// Close frees the recognizer and the model.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
}

func parseVoskResult(raw string) (string, error) {
	var res voskResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return "", fmt.Errorf("decode vosk result: %w", err)
	}
	return res.Text, nil
}

// toPCM16 converts [-1, 1] float samples to little-endian signed 16-bit PCM.
func toPCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return pcm
}
