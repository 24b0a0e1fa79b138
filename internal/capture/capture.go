// Package capture collects face crops from a live camera feed.
//
// A Session moves through Init -> Capturing -> (Complete | Aborted). Open runs
// Init: it verifies the detector model before the camera is touched, so a
// missing model leaves nothing opened and nothing written. Run drives the
// capture loop and Close releases every device on every exit path.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/andresmejia3/facenroll/internal/types"
	"github.com/andresmejia3/facenroll/internal/utils"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const (
	// DefaultTarget is the number of face images collected per enrollment.
	DefaultTarget = 50
	// DefaultProgressEvery announces progress every n saved images.
	DefaultProgressEvery = 10
	// DefaultCancelKey stops capture from the preview window.
	DefaultCancelKey = 'q'
	// DefaultCascade is the frontal face Haar cascade shipped with OpenCV.
	DefaultCascade = "haarcascade_frontalface_default.xml"
)

const (
	msgModelMissing = "Error! Haar cascade file not found."
	msgNoCamera     = "Error! Could not access the webcam."
	msgFrameFailed  = "Error accessing the webcam."
	msgNoFace       = "No face detected. Please adjust your position."
	msgUserExit     = "Exiting as per user request."
	msgDone         = "Face data collection complete. Exiting now."
)

var (
	ErrModelMissing      = errors.New("face detector model not found")
	ErrCameraUnavailable = errors.New("could not open camera")
	ErrFrameRead         = errors.New("could not read frame from camera")
	ErrCancelled         = errors.New("capture cancelled")
)

// State of a capture session.
type State int

const (
	Init State = iota
	Capturing
	Complete
	Aborted
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Capturing:
		return "capturing"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Vision is the camera + detector + preview backend. The gocv implementation
// lives in gocv.go; tests substitute a fake.
type Vision interface {
	// Read grabs the next frame and prepares its grayscale copy.
	Read() error
	// Detect returns face rectangles in the current frame.
	Detect() []image.Rectangle
	// Save writes the grayscale crop r of the current frame to path.
	Save(r image.Rectangle, path string) error
	// Mark draws r on the display frame.
	Mark(r image.Rectangle)
	// Show displays the annotated frame and returns the key pressed, or -1.
	Show() int
	Close() error
}

// Opener creates the Vision backend once the model file has been found.
type Opener func(cfg Config) (Vision, error)

// Announcer speaks status messages to the user.
type Announcer interface {
	Say(ctx context.Context, text string)
}

// Config holds the capture settings.
type Config struct {
	CascadePath   string
	Device        int
	DataDir       string
	Target        int
	ProgressEvery int
	Preview       bool
	CancelKey     rune
	Progress      io.Writer // progress bar output, stderr when nil
}

// DefaultConfig returns the settings used by the enroll command.
func DefaultConfig() Config {
	return Config{
		CascadePath:   DefaultCascade,
		DataDir:       "Data",
		Target:        DefaultTarget,
		ProgressEvery: DefaultProgressEvery,
		Preview:       true,
		CancelKey:     DefaultCancelKey,
	}
}

// Report summarizes a finished Run.
type Report struct {
	State  State
	Saved  int // sequence numbers handed out
	Failed int // of which could not be written
}

// Session owns the camera and preview window for one enrollment.
type Session struct {
	cfg    Config
	vision Vision
	say    Announcer
	log    *zap.Logger
	state  State

	// OnSaved is called after each image is written successfully.
	OnSaved func(types.CapturedImage)
}

// Open verifies the detector model, then opens the camera through open.
// Both failures are announced before returning.
func Open(ctx context.Context, cfg Config, open Opener, say Announcer, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Target <= 0 {
		cfg.Target = DefaultTarget
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if cfg.Progress == nil {
		cfg.Progress = os.Stderr
	}

	if !utils.FileExists(cfg.CascadePath) {
		say.Say(ctx, msgModelMissing)
		return nil, fmt.Errorf("%w: %s", ErrModelMissing, cfg.CascadePath)
	}

	v, err := open(cfg)
	if err != nil {
		if errors.Is(err, ErrModelMissing) {
			say.Say(ctx, msgModelMissing)
			return nil, err
		}
		say.Say(ctx, msgNoCamera)
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	log.Debug("camera opened", zap.Int("device", cfg.Device), zap.String("cascade", cfg.CascadePath))
	return &Session{cfg: cfg, vision: v, say: say, log: log, state: Init}, nil
}

// State returns where the session is in its lifecycle.
func (s *Session) State() State {
	return s.state
}

// Run captures faces for ownerID until the target is reached, the cancel key is
// pressed, ctx is cancelled or the camera fails. Image write failures are
// logged and do not stop the loop.
func (s *Session) Run(ctx context.Context, ownerID string) (Report, error) {
	s.state = Capturing
	rep := Report{}

	// The closing line must survive a cancelled context
	defer s.say.Say(context.WithoutCancel(ctx), msgDone)

	bar := progressbar.NewOptions(s.cfg.Target,
		progressbar.OptionSetDescription("📸 Capturing faces"),
		progressbar.OptionSetWriter(s.cfg.Progress),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	abort := func(err error) (Report, error) {
		s.state = Aborted
		rep.State = Aborted
		s.log.Info("capture aborted", zap.Int("saved", rep.Saved), zap.Error(err))
		return rep, err
	}

	for rep.Saved < s.cfg.Target {
		if err := ctx.Err(); err != nil {
			return abort(fmt.Errorf("%w: %v", ErrCancelled, err))
		}

		if err := s.vision.Read(); err != nil {
			s.say.Say(ctx, msgFrameFailed)
			return abort(fmt.Errorf("%w: %v", ErrFrameRead, err))
		}

		faces := s.vision.Detect()
		if len(faces) == 0 {
			s.say.Say(ctx, msgNoFace)
		}

		for _, r := range faces {
			if rep.Saved >= s.cfg.Target {
				break
			}
			rep.Saved++
			img := types.CapturedImage{
				OwnerID:  ownerID,
				Sequence: rep.Saved,
				Path:     filepath.Join(s.cfg.DataDir, types.ImageName(ownerID, rep.Saved)),
			}

			if err := s.vision.Save(r, img.Path); err != nil {
				rep.Failed++
				s.log.Error("saving face image failed", zap.String("path", img.Path), zap.Error(err))
			} else if s.OnSaved != nil {
				s.OnSaved(img)
			}

			s.vision.Mark(r)
			bar.Add(1)

			if rep.Saved%s.cfg.ProgressEvery == 0 {
				s.say.Say(ctx, fmt.Sprintf("%d images captured.", rep.Saved))
			}
		}

		if key := s.vision.Show(); key >= 0 && rune(key&0xFF) == s.cfg.CancelKey {
			s.say.Say(ctx, msgUserExit)
			return abort(ErrCancelled)
		}
	}

	s.state = Complete
	rep.State = Complete
	return rep, nil
}

// Close releases the camera and preview window. It is safe to call twice.
func (s *Session) Close() error {
	if s.vision == nil {
		return nil
	}
	err := s.vision.Close()
	s.vision = nil
	return err
}
