package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andresmejia3/facenroll/internal/audio"
	"github.com/andresmejia3/facenroll/internal/capture"
	"github.com/andresmejia3/facenroll/internal/enroll"
	"github.com/andresmejia3/facenroll/internal/notify"
	"github.com/andresmejia3/facenroll/internal/roster"
	"github.com/andresmejia3/facenroll/internal/speech"
	"github.com/andresmejia3/facenroll/internal/types"
	"github.com/andresmejia3/facenroll/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Options holds the configuration of an enrollment run
type Options struct {
	CascadePath   string
	Device        int
	DataDir       string
	LogFile       string
	Images        int
	Retries       int
	VoiceModel    string
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
	Calibrate     time.Duration
	TTSBinary     string
	Rate          int
	Institution   string
	NoPreview     bool
	Notify        bool
}

var enrollOpts Options

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Collect a person's details by voice and capture their face images",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runEnroll(cmd.Context(), enrollOpts, systemEnv(enrollOpts))
	},
}

func init() {
	enrollCmd.Flags().StringVarP(&enrollOpts.CascadePath, "cascade", "c", capture.DefaultCascade, "Path to the Haar cascade face detector")
	enrollCmd.Flags().IntVarP(&enrollOpts.Device, "camera", "d", 0, "Camera device index")
	enrollCmd.Flags().StringVar(&enrollOpts.DataDir, "data-dir", roster.DefaultDataDir, "Directory for captured face images")
	enrollCmd.Flags().StringVar(&enrollOpts.LogFile, "log-file", roster.DefaultLogPath, "Roster log receiving one 'id name branch' line per run")
	enrollCmd.Flags().IntVarP(&enrollOpts.Images, "images", "n", capture.DefaultTarget, "Number of face images to capture")
	enrollCmd.Flags().IntVarP(&enrollOpts.Retries, "retries", "r", enroll.DefaultRetries, "Voice attempts per question before falling back to the keyboard")
	enrollCmd.Flags().StringVarP(&enrollOpts.VoiceModel, "voice-model", "m", "model", "Vosk model directory (keyboard input only if missing)")
	enrollCmd.Flags().DurationVar(&enrollOpts.ListenTimeout, "listen-timeout", 15*time.Second, "How long to wait for an answer to start")
	enrollCmd.Flags().DurationVar(&enrollOpts.PhraseLimit, "phrase-limit", 8*time.Second, "Longest accepted spoken answer")
	enrollCmd.Flags().DurationVar(&enrollOpts.Calibrate, "calibrate", 2*time.Second, "Ambient noise calibration before the first question")
	enrollCmd.Flags().StringVar(&enrollOpts.TTSBinary, "tts", "espeak-ng", "Text-to-speech command")
	enrollCmd.Flags().IntVar(&enrollOpts.Rate, "rate", speech.DefaultRate, "Speaking rate in words per minute")
	enrollCmd.Flags().StringVar(&enrollOpts.Institution, "institution", enroll.DefaultInstitution, "Name used in the welcome greeting")
	enrollCmd.Flags().BoolVar(&enrollOpts.NoPreview, "no-preview", false, "Do not open the live preview window")
	enrollCmd.Flags().BoolVar(&enrollOpts.Notify, "notify", false, "Show a desktop notification when capture ends")

	rootCmd.AddCommand(enrollCmd)
}

// enrollEnv is everything an enrollment run talks to outside the process.
type enrollEnv struct {
	In       io.Reader
	Out      io.Writer
	Speaker  speech.Speaker
	Listener func(ctx context.Context, opts Options, log *zap.Logger) (speech.Listener, func())
	Open     capture.Opener
}

// systemEnv uses the terminal, espeak, the microphone and the webcam.
func systemEnv(opts Options) enrollEnv {
	return enrollEnv{
		In:       os.Stdin,
		Out:      os.Stdout,
		Speaker:  speech.NewEspeak(opts.TTSBinary, opts.Rate),
		Listener: openListener,
		Open:     capture.OpenCamera,
	}
}

// runEnroll greets the user, collects the enrollment form, then captures faces.
func runEnroll(ctx context.Context, opts Options, env enrollEnv) error {
	if err := validateEnrollFlags(&opts); err != nil {
		utils.ShowError("Invalid flags", err, nil)
		return err
	}
	log := Log
	if log == nil {
		log = zap.NewNop()
	}

	// 1. Voice: TTS always, STT when a model and a microphone are available
	listener, closeListener := env.Listener(ctx, opts, log)
	defer closeListener()

	prompter := enroll.NewPrompter(env.Speaker, listener, env.In, env.Out, log)

	// 2. Greeting and form
	enroll.Greet(ctx, prompter, time.Now(), opts.Institution)

	form := &enroll.Form{Prompter: prompter, Retries: opts.Retries}
	rec, err := form.Collect(ctx)
	if err != nil {
		utils.ShowError("Enrollment form was not completed", err, nil)
		return err
	}
	log.Info("enrollment collected", zap.String("id", rec.ID), zap.String("name", rec.Name), zap.String("branch", rec.Branch))

	// 3. Detector and camera, before anything touches the disk
	cfg := capture.DefaultConfig()
	cfg.CascadePath = opts.CascadePath
	cfg.Device = opts.Device
	cfg.DataDir = opts.DataDir
	cfg.Target = opts.Images
	cfg.Preview = !opts.NoPreview

	session, err := capture.Open(ctx, cfg, env.Open, prompter, log)
	if err != nil {
		utils.ShowError("Face capture could not start", err, nil)
		return err
	}
	defer session.Close()

	// 4. Persist the record
	if err := roster.EnsureDirectory(opts.DataDir); err != nil {
		utils.ShowError("Failed to create image directory", err, nil)
		return err
	}
	if err := roster.AppendRecord(rec, opts.LogFile); err != nil {
		utils.ShowError("Failed to write roster log", err, nil)
		return err
	}
	mirrorToDB(ctx, session, rec, log)

	// 5. Capture
	fmt.Fprintf(os.Stderr, "📸 Capturing %d images for %s (ID %s).", opts.Images, rec.Name, rec.ID)
	if cfg.Preview {
		fmt.Fprintf(os.Stderr, " Press '%c' in the preview window to stop.", cfg.CancelKey)
	}
	fmt.Fprintln(os.Stderr)

	rep, err := session.Run(ctx, rec.ID)
	notifier := notify.New(opts.Notify)

	if err != nil {
		notifier.Aborted(rec.ID, rep.Saved-rep.Failed, err)
		if errors.Is(err, capture.ErrCancelled) {
			fmt.Fprintf(os.Stderr, "\n⏹️  Capture stopped. %d images saved for ID %s.\n", rep.Saved-rep.Failed, rec.ID)
			return nil
		}
		utils.ShowError("Face capture failed", err, nil)
		return err
	}

	notifier.Complete(rec.ID, rep.Saved-rep.Failed)
	fmt.Fprintf(os.Stderr, "\n🏁 Enrollment complete. %d images saved to %s", rep.Saved-rep.Failed, opts.DataDir)
	if rep.Failed > 0 {
		fmt.Fprintf(os.Stderr, " (%d could not be written)", rep.Failed)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// openListener loads the speech model and microphone. Any failure falls back
// to keyboard-only input; the returned cleanup is always safe to call.
func openListener(ctx context.Context, opts Options, log *zap.Logger) (speech.Listener, func()) {
	noop := func() {}

	if !utils.FileExists(opts.VoiceModel) {
		log.Warn("speech model not found, using keyboard input", zap.String("path", opts.VoiceModel))
		return nil, noop
	}

	rec, err := speech.NewVosk(opts.VoiceModel, audio.SampleRate)
	if err != nil {
		log.Warn("speech model failed to load, using keyboard input", zap.Error(err))
		return nil, noop
	}

	mic, err := audio.OpenMic()
	if err != nil {
		rec.Close()
		log.Warn("microphone unavailable, using keyboard input", zap.Error(err))
		return nil, noop
	}

	fmt.Fprintln(os.Stderr, "🎙️  Calibrating microphone, please stay quiet...")
	if err := mic.Calibrate(ctx, opts.Calibrate); err != nil {
		log.Warn("microphone calibration failed", zap.Error(err))
	}
	log.Debug("microphone ready", zap.Float64("threshold", mic.Threshold()))

	l := &speech.MicListener{
		Source:      mic,
		Recognizer:  rec,
		Timeout:     opts.ListenTimeout,
		PhraseLimit: opts.PhraseLimit,
	}
	return l, func() {
		mic.Close()
		rec.Close()
	}
}

// mirrorToDB records the enrollment in Postgres when configured and streams
// saved images into it. Database errors never stop the capture.
func mirrorToDB(ctx context.Context, session *capture.Session, rec types.EnrollmentRecord, log *zap.Logger) {
	if DB == nil {
		return
	}
	enrollmentID, err := DB.RecordEnrollment(ctx, rec)
	if err != nil {
		log.Warn("failed to mirror enrollment to database", zap.Error(err))
		return
	}
	session.OnSaved = func(img types.CapturedImage) {
		if err := DB.AddImage(context.WithoutCancel(ctx), enrollmentID, img); err != nil {
			log.Warn("failed to mirror image to database", zap.String("path", img.Path), zap.Error(err))
		}
	}
}

// validateEnrollFlags ensures all CLI arguments are valid before any device is opened.
func validateEnrollFlags(opts *Options) error {
	if opts.Images < 1 {
		return fmt.Errorf("images must be >= 1, got %d", opts.Images)
	}
	if opts.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", opts.Retries)
	}
	if opts.Device < 0 {
		return fmt.Errorf("camera index must be >= 0, got %d", opts.Device)
	}
	if opts.ListenTimeout <= 0 || opts.PhraseLimit <= 0 {
		return fmt.Errorf("listen-timeout and phrase-limit must be positive")
	}
	if opts.Calibrate < 0 {
		return fmt.Errorf("calibrate must not be negative, got %s", opts.Calibrate)
	}
	if opts.Rate < 1 {
		opts.Rate = speech.DefaultRate
	}
	if opts.CascadePath == "" || opts.DataDir == "" || opts.LogFile == "" {
		return fmt.Errorf("cascade, data-dir and log-file must not be empty")
	}
	return nil
}
