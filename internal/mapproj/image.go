package mapproj

import "errors"

// ErrInvalidImageSize is returned when a displayed image size is not positive.
var ErrInvalidImageSize = errors.New("displayed image size must be positive")

// ImageScale converts between browser (CSS) pixels of a displayed map image
// and actual pixels of the image file.
type ImageScale struct {
	X float64
	Y float64
}

// NewImageScale returns natural/displayed per axis. A zero natural size
// means the natural size is unknown; the displayed size is used instead.
func NewImageScale(naturalW, naturalH, displayedW, displayedH float64) (ImageScale, error) {
	if displayedW <= 0 || displayedH <= 0 {
		return ImageScale{}, ErrInvalidImageSize
	}
	if naturalW <= 0 || naturalH <= 0 {
		naturalW, naturalH = displayedW, displayedH
	}
	return ImageScale{X: naturalW / displayedW, Y: naturalH / displayedH}, nil
}

// ToActual converts browser pixels to actual image pixels.
func (s ImageScale) ToActual(browserX, browserY float64) (float64, float64) {
	return browserX * s.X, browserY * s.Y
}

// ToBrowser converts actual image pixels to browser pixels.
func (s ImageScale) ToBrowser(actualX, actualY float64) (float64, float64) {
	return actualX / s.X, actualY / s.Y
}
