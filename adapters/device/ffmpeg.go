package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/khoahotran/wedding-memories/internal/application/service"
	"github.com/khoahotran/wedding-memories/internal/config"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

const chunkSize = 64 * 1024

// FFmpegDevice captures from V4L2 cameras and ALSA microphones through ffmpeg.
type FFmpegDevice struct {
	ffmpeg       string
	videoDevices []string
	audioDevice  string
	logger       logger.Logger
}

func NewFFmpegDevice(cfg config.Config, log logger.Logger) *FFmpegDevice {
	return &FFmpegDevice{
		ffmpeg:       cfg.Capture.FFmpegPath,
		videoDevices: cfg.Capture.VideoDevices,
		audioDevice:  cfg.Capture.AudioDevice,
		logger:       log.With(zap.String("component", "ffmpeg_device")),
	}
}

var _ service.CaptureDevice = (*FFmpegDevice)(nil)

func (d *FFmpegDevice) Open(ctx context.Context, c service.Constraints) (service.MediaStream, error) {
	s := &stream{ffmpeg: d.ffmpeg, audio: c.Audio, audioDevice: d.audioDevice, logger: d.logger}

	if c.Video {
		dev, err := d.findCamera()
		if err != nil {
			return nil, err
		}
		s.video = dev
		if c.IdealWidth > 0 && c.IdealHeight > 0 {
			s.size = fmt.Sprintf("%dx%d", c.IdealWidth, c.IdealHeight)
			if _, err := s.GrabFrame(ctx); err != nil {
				if errors.Is(err, service.ErrPermissionDenied) || errors.Is(err, service.ErrNoDevice) {
					return nil, err
				}
				return nil, fmt.Errorf("%w: %v", service.ErrConstraintsUnsatisfiable, err)
			}
		}
	}
	return s, nil
}

// findCamera returns the first configured camera that exists and can be opened.
func (d *FFmpegDevice) findCamera() (string, error) {
	var denied bool
	for _, dev := range d.videoDevices {
		f, err := os.OpenFile(dev, os.O_RDWR, 0)
		if err == nil {
			f.Close()
			return dev, nil
		}
		if errors.Is(err, os.ErrPermission) {
			denied = true
		}
	}
	if denied {
		return "", service.ErrPermissionDenied
	}
	return "", service.ErrNoDevice
}

type stream struct {
	ffmpeg      string
	video       string
	size        string
	audio       bool
	audioDevice string
	logger      logger.Logger

	mu     sync.Mutex
	rec    *recorder
	closed bool
}

func (s *stream) inputArgs() []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if s.video != "" {
		args = append(args, "-f", "v4l2")
		if s.size != "" {
			args = append(args, "-video_size", s.size)
		}
		args = append(args, "-i", s.video)
	}
	if s.audio {
		args = append(args, "-f", "alsa", "-i", s.audioDevice)
	}
	return args
}

// GrabFrame runs ffmpeg for a single frame, encoded as JPEG at high quality.
func (s *stream) GrabFrame(ctx context.Context) ([]byte, error) {
	if s.video == "" {
		return nil, errors.New("stream has no camera")
	}
	args := append(s.inputArgs(), "-frames:v", "1", "-q:v", "2", "-f", "image2pipe", "-vcodec", "mjpeg", "-")
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classify(err, stderr.String())
	}
	if out.Len() == 0 {
		return nil, errors.New("ffmpeg produced no frame")
	}
	return out.Bytes(), nil
}

// Record starts an ffmpeg process muxing WebM to stdout. The process is not
// bound to ctx; it lives until the recorder is stopped.
func (s *stream) Record(_ context.Context, sink func([]byte)) (service.Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("stream is closed")
	}
	if s.rec != nil {
		return nil, errors.New("already recording")
	}

	args := s.inputArgs()
	if s.video != "" {
		args = append(args, "-c:v", "libvpx", "-deadline", "realtime", "-b:v", "2M")
	}
	if s.audio {
		args = append(args, "-c:a", "libopus")
	}
	args = append(args, "-f", "webm", "-")

	cmd := exec.Command(s.ffmpeg, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, classify(err, "")
	}

	r := &recorder{cmd: cmd, stdin: stdin, stderr: &stderr, done: make(chan struct{}), logger: s.logger}
	go r.pump(stdout, sink)
	s.rec = r
	return &streamRecorder{stream: s, rec: r}, nil
}

func (s *stream) Close() error {
	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	s.closed = true
	s.mu.Unlock()

	if rec != nil {
		return rec.stop()
	}
	return nil
}

type recorder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	done   chan struct{}
	once   sync.Once
	err    error
	logger logger.Logger
}

func (r *recorder) pump(stdout io.Reader, sink func([]byte)) {
	defer close(r.done)
	buf := make([]byte, chunkSize)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			sink(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				r.logger.Warn("Recorder output ended with error", zap.Error(err))
			}
			return
		}
	}
}

// stop asks ffmpeg to finish the container, then waits for the last chunks.
func (r *recorder) stop() error {
	r.once.Do(func() {
		if _, err := io.WriteString(r.stdin, "q"); err != nil {
			_ = r.cmd.Process.Signal(os.Interrupt)
		}
		r.stdin.Close()
		<-r.done
		if err := r.cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) || exitErr.ExitCode() != 255 {
				r.err = classify(err, r.stderr.String())
			}
		}
	})
	return r.err
}

type streamRecorder struct {
	stream *stream
	rec    *recorder
}

func (sr *streamRecorder) Stop() error {
	sr.stream.mu.Lock()
	if sr.stream.rec == sr.rec {
		sr.stream.rec = nil
	}
	sr.stream.mu.Unlock()
	return sr.rec.stop()
}

func classify(err error, stderr string) error {
	msg := strings.ToLower(stderr)
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: ffmpeg not installed", service.ErrNoDevice)
	case strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w: %s", service.ErrPermissionDenied, strings.TrimSpace(stderr))
	case strings.Contains(msg, "no such file or directory"), strings.Contains(msg, "no such device"):
		return fmt.Errorf("%w: %s", service.ErrNoDevice, strings.TrimSpace(stderr))
	}
	if stderr != "" {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr))
	}
	return fmt.Errorf("ffmpeg failed: %w", err)
}
