package mediainfo

import (
	"bytes"
	"errors"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/at-wat/ebml-go/webm"
	"github.com/khoahotran/wedding-memories/internal/application/service"
)

var ErrNoDuration = errors.New("container has no duration")

const defaultTimecodeScale = 1000000

type cluster struct {
	Timecode    uint64       `ebml:"Timecode"`
	SimpleBlock []ebml.Block `ebml:"SimpleBlock"`
}

type segment struct {
	Info    webm.Info `ebml:"Info"`
	Cluster []cluster `ebml:"Cluster"`
}

type document struct {
	Header  webm.EBMLHeader `ebml:"EBML"`
	Segment segment         `ebml:"Segment"`
}

// WebMDecoder reads the duration of a WebM recording from its metadata.
type WebMDecoder struct{}

func NewWebMDecoder() *WebMDecoder {
	return &WebMDecoder{}
}

var _ service.DurationDecoder = (*WebMDecoder)(nil)

// Duration uses Segment/Info/Duration when the muxer wrote it, otherwise the
// timecode of the last block. Recorders that stream without seeking often
// leave Duration out.
func (d *WebMDecoder) Duration(payload []byte) (time.Duration, error) {
	var doc document
	err := ebml.Unmarshal(bytes.NewReader(payload), &doc)

	if dur := doc.Segment.duration(); dur > 0 {
		return dur, nil
	}
	if err != nil {
		return 0, err
	}
	return 0, ErrNoDuration
}

func (s *segment) duration() time.Duration {
	scale := s.Info.TimecodeScale
	if scale == 0 {
		scale = defaultTimecodeScale
	}
	if s.Info.Duration > 0 {
		return time.Duration(s.Info.Duration * float64(scale))
	}

	var last int64
	for _, c := range s.Cluster {
		for _, b := range c.SimpleBlock {
			if tc := int64(c.Timecode) + int64(b.Timecode); tc > last {
				last = tc
			}
		}
		if int64(c.Timecode) > last {
			last = int64(c.Timecode)
		}
	}
	return time.Duration(last) * time.Duration(scale)
}
