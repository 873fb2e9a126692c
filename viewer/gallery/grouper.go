package gallery

import (
	"time"

	"github.com/nerith/photofold/viewer/shareclient"
)

// UnknownDateKey is the bucket key for photos with no usable date.
const UnknownDateKey = ""

// UnknownDateDisplay is shown for the unknown-date bucket.
const UnknownDateDisplay = "Unknown date"

const displayFormat = "Monday, January 2, 2006"

// PhotoGroup is one calendar day of photos.
type PhotoGroup struct {
	// Key is the local day as YYYY-MM-DD, or "" for the unknown-date bucket.
	Key string

	// Display is the human heading, eg "Saturday, March 15, 2025".
	Display string

	Photos []*shareclient.SharedPhoto
}

// GroupByDay partitions photos into calendar-day groups in the given
// location. The effective date of a photo is captured_at when present,
// created_at otherwise; photos with neither go to a single unknown-date
// bucket. Groups appear in first-seen order and members keep input order, so
// concatenating the groups reproduces the input exactly.
func GroupByDay(photos []*shareclient.SharedPhoto, loc *time.Location) []PhotoGroup {
	if loc == nil {
		loc = time.Local
	}

	var groups []PhotoGroup
	index := make(map[string]int)

	for _, photo := range photos {
		key, display := dayOf(photo, loc)

		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, PhotoGroup{Key: key, Display: display})
		}
		groups[i].Photos = append(groups[i].Photos, photo)
	}

	return groups
}

// dayOf returns the bucket key and heading of one photo. The day boundary is
// taken in loc, not UTC: a photo captured at 23:30-08:00 on March 15 belongs
// to March 15.
func dayOf(photo *shareclient.SharedPhoto, loc *time.Location) (string, string) {
	date := photo.CapturedAt
	if date == nil {
		if photo.CreatedAt.IsZero() {
			return UnknownDateKey, UnknownDateDisplay
		}
		date = &photo.CreatedAt
	}

	local := date.In(loc)
	return local.Format("2006-01-02"), local.Format(displayFormat)
}
