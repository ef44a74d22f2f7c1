package probe

import (
	"time"

	"github.com/lepinkainen/ffsimple/progress"
)

// Metadata is the normalized result of probing one media file.
// It is never modified after the prober returns it.
type Metadata struct {
	Path string `json:"path"`

	Title   string `json:"title,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Date    string `json:"date,omitempty"`
	Comment string `json:"comment,omitempty"`

	Duration float64 `json:"duration"` // seconds
	Bitrate  int     `json:"bitrate"`  // kbps

	HasVideo      bool    `json:"hasVideo"`
	Codec         string  `json:"codec,omitempty"`
	CodecProfile  string  `json:"codecProfile,omitempty"`
	CodecLevel    int     `json:"codecLevel,omitempty"`
	Width         int     `json:"width,omitempty"`
	Height        int     `json:"height,omitempty"`
	AspectRatio   string  `json:"aspectRatio,omitempty"`
	Framerate     float64 `json:"framerate,omitempty"`
	VideoDuration float64 `json:"videoDuration,omitempty"`

	HasAudio        bool    `json:"hasAudio"`
	AudioCodec      string  `json:"audioCodec,omitempty"`
	AudioChannels   int     `json:"audioChannels,omitempty"`
	AudioSampleRate int     `json:"audioSampleRate,omitempty"`
	AudioBitrate    int     `json:"audioBitrate,omitempty"`
	AudioDuration   float64 `json:"audioDuration,omitempty"`

	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Length returns the container duration as a time.Duration.
func (m *Metadata) Length() time.Duration {
	if m == nil {
		return 0
	}
	return time.Duration(m.Duration * float64(time.Second))
}

// IsPortrait reports whether the video is taller than wide.
func (m *Metadata) IsPortrait() bool {
	return m != nil && m.Height > m.Width
}

// HumanSize is the file size as "12 MB".
func (m *Metadata) HumanSize() string {
	return progress.SizeString(m.Size)
}

// HumanDuration is the duration as "3 minutes".
func (m *Metadata) HumanDuration() string {
	return progress.DurationString(m.Length())
}

// Tags returns the non-empty title/artist/date/comment tags.
func (m *Metadata) Tags() map[string]string {
	tags := make(map[string]string, 4)
	for k, v := range map[string]string{
		"title":   m.Title,
		"artist":  m.Artist,
		"date":    m.Date,
		"comment": m.Comment,
	} {
		if v != "" {
			tags[k] = v
		}
	}
	return tags
}

// Aggregate sums duration and size over several inputs.
func Aggregate(metas []*Metadata) (duration time.Duration, size int64) {
	for _, m := range metas {
		if m == nil {
			continue
		}
		duration += m.Length()
		size += m.Size
	}
	return duration, size
}
