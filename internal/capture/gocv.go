package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	windowName   = "FaceDetect"
	scaleFactor  = 1.3
	minNeighbors = 5
)

// cvVision is the OpenCV backend: webcam, Haar cascade and preview window.
type cvVision struct {
	webcam     *gocv.VideoCapture
	window     *gocv.Window // nil without preview
	classifier gocv.CascadeClassifier
	frame      gocv.Mat
	gray       gocv.Mat
	outline    color.RGBA
}

// OpenCamera is the default Opener. It loads the cascade first so a corrupt
// model is reported as such rather than as a camera problem.
func OpenCamera(cfg Config) (Vision, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("%w: cannot load %s", ErrModelMissing, cfg.CascadePath)
	}

	webcam, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		classifier.Close()
		return nil, fmt.Errorf("open device %d: %w", cfg.Device, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		classifier.Close()
		return nil, fmt.Errorf("device %d is not available", cfg.Device)
	}

	v := &cvVision{
		webcam:     webcam,
		classifier: classifier,
		frame:      gocv.NewMat(),
		gray:       gocv.NewMat(),
		// blue
		outline: color.RGBA{0, 0, 255, 0},
	}
	if cfg.Preview {
		v.window = gocv.NewWindow(windowName)
	}
	return v, nil
}

func (v *cvVision) Read() error {
	if ok := v.webcam.Read(&v.frame); !ok {
		return errors.New("camera returned no frame")
	}
	if v.frame.Empty() {
		return errors.New("camera returned an empty frame")
	}
	gocv.CvtColor(v.frame, &v.gray, gocv.ColorBGRToGray)
	return nil
}

func (v *cvVision) Detect() []image.Rectangle {
	return v.classifier.DetectMultiScaleWithParams(v.gray, scaleFactor, minNeighbors, 0, image.Point{}, image.Point{})
}

func (v *cvVision) Save(r image.Rectangle, path string) error {
	r = r.Intersect(image.Rect(0, 0, v.gray.Cols(), v.gray.Rows()))
	if r.Empty() {
		return fmt.Errorf("face rectangle outside of frame")
	}

	roi := v.gray.Region(r)
	defer roi.Close()

	if !gocv.IMWrite(path, roi) {
		return fmt.Errorf("imwrite %s failed", path)
	}
	return nil
}

func (v *cvVision) Mark(r image.Rectangle) {
	gocv.Rectangle(&v.frame, r, v.outline, 2)
}

func (v *cvVision) Show() int {
	if v.window == nil {
		return -1
	}
	v.window.IMShow(v.frame)
	return v.window.WaitKey(1)
}

func (v *cvVision) Close() error {
	var errs []error
	if v.window != nil {
		errs = append(errs, v.window.Close())
		v.window = nil
	}
	if v.webcam != nil {
		errs = append(errs, v.webcam.Close())
		v.webcam = nil
	}
	errs = append(errs, v.classifier.Close(), v.frame.Close(), v.gray.Close())
	return errors.Join(errs...)
}
