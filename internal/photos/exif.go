package photos

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractCapturedAt reads the EXIF DateTimeOriginal from an image. Returns nil
// when the data carries no usable capture time; ingestion never fails on bad
// EXIF.
func ExtractCapturedAt(r io.Reader) *time.Time {
	x, err := exif.Decode(r)
	if err != nil {
		return nil
	}

	tm, err := x.DateTime()
	if err != nil {
		return nil
	}
	if tm.IsZero() {
		return nil
	}
	return &tm
}
