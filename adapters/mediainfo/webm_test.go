package mediainfo

import (
	"bytes"
	"testing"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/at-wat/ebml-go/webm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, doc document) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ebml.Marshal(&doc, &buf))
	return buf.Bytes()
}

func header() webm.EBMLHeader {
	return webm.EBMLHeader{
		EBMLVersion:        1,
		EBMLReadVersion:    1,
		EBMLMaxIDLength:    4,
		EBMLMaxSizeLength:  8,
		DocType:            "webm",
		DocTypeVersion:     4,
		DocTypeReadVersion: 2,
	}
}

func TestDurationFromInfo(t *testing.T) {
	payload := encode(t, document{
		Header: header(),
		Segment: segment{
			Info: webm.Info{TimecodeScale: 1000000, MuxingApp: "test", WritingApp: "test", Duration: 12500},
		},
	})

	d, err := NewWebMDecoder().Duration(payload)
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)
}

func TestDurationFromLastBlock(t *testing.T) {
	payload := encode(t, document{
		Header: header(),
		Segment: segment{
			Info: webm.Info{TimecodeScale: 1000000, MuxingApp: "test", WritingApp: "test"},
			Cluster: []cluster{
				{Timecode: 0, SimpleBlock: []ebml.Block{{TrackNumber: 1, Timecode: 0, Keyframe: true, Data: [][]byte{{0x01}}}}},
				{Timecode: 5000, SimpleBlock: []ebml.Block{{TrackNumber: 1, Timecode: 1200, Keyframe: true, Data: [][]byte{{0x02}}}}},
			},
		},
	})

	d, err := NewWebMDecoder().Duration(payload)
	require.NoError(t, err)
	assert.Equal(t, 6200*time.Millisecond, d)
}

func TestDurationGarbage(t *testing.T) {
	_, err := NewWebMDecoder().Duration([]byte("not a webm file"))
	assert.Error(t, err)
}
