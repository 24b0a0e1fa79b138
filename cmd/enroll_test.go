package cmd

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/facenroll/internal/capture"
	"github.com/andresmejia3/facenroll/internal/speech"
	"github.com/andresmejia3/facenroll/internal/types"
	"go.uber.org/zap"
)

type quietSpeaker struct{ said []string }

func (q *quietSpeaker) Speak(ctx context.Context, text string) error {
	q.said = append(q.said, text)
	return nil
}

// stillCamera sees one face in every frame.
type stillCamera struct{ closed bool }

func (c *stillCamera) Read() error { return nil }
func (c *stillCamera) Detect() []image.Rectangle {
	return []image.Rectangle{image.Rect(0, 0, 40, 40)}
}
func (c *stillCamera) Save(r image.Rectangle, path string) error {
	return os.WriteFile(path, []byte("jpeg"), 0644)
}
func (c *stillCamera) Mark(r image.Rectangle) {}
func (c *stillCamera) Show() int              { return -1 }
func (c *stillCamera) Close() error {
	c.closed = true
	return nil
}

func keyboardOnly(ctx context.Context, opts Options, log *zap.Logger) (speech.Listener, func()) {
	return nil, func() {}
}

// enrollFixture lays out a working directory and a keyboard-only environment
// answering name, branch and ID.
func enrollFixture(t *testing.T, withCascade bool) (Options, enrollEnv, *stillCamera, *bool) {
	t.Helper()
	dir := t.TempDir()

	opts := validOptions()
	opts.CascadePath = filepath.Join(dir, "haarcascade_frontalface_default.xml")
	opts.DataDir = filepath.Join(dir, "Data")
	opts.LogFile = filepath.Join(dir, "datatext.txt")
	opts.Images = 3
	opts.NoPreview = true

	if withCascade {
		if err := os.WriteFile(opts.CascadePath, []byte("<opencv_storage/>"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cam := &stillCamera{}
	opened := false
	env := enrollEnv{
		In:       strings.NewReader("ada\ncse\n42\n"),
		Out:      io.Discard,
		Speaker:  &quietSpeaker{},
		Listener: keyboardOnly,
		Open: func(capture.Config) (capture.Vision, error) {
			opened = true
			return cam, nil
		},
	}
	return opts, env, cam, &opened
}

func TestRunEnrollMissingCascadeWritesNothing(t *testing.T) {
	opts, env, _, opened := enrollFixture(t, false)

	err := runEnroll(context.Background(), opts, env)
	if !errors.Is(err, capture.ErrModelMissing) {
		t.Fatalf("Expected ErrModelMissing, got %v", err)
	}
	if *opened {
		t.Error("Camera must not be opened without a detector model")
	}
	if _, err := os.Stat(opts.LogFile); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Roster log must not exist, stat err = %v", err)
	}
	if _, err := os.Stat(opts.DataDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Image directory must not exist, stat err = %v", err)
	}
}

func TestRunEnrollWritesOneLogLine(t *testing.T) {
	opts, env, cam, _ := enrollFixture(t, true)

	if err := runEnroll(context.Background(), opts, env); err != nil {
		t.Fatalf("runEnroll failed: %v", err)
	}
	if !cam.closed {
		t.Error("Camera was not released")
	}

	data, err := os.ReadFile(opts.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "42 ada cse\n" {
		t.Errorf("Expected exactly one roster line, got %q", got)
	}

	for seq := 1; seq <= 3; seq++ {
		path := filepath.Join(opts.DataDir, types.ImageName("42", seq))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Missing image %s: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(opts.DataDir, "42_4.jpg")); err == nil {
		t.Error("Captured more images than requested")
	}
}
