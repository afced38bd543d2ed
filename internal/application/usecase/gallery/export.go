package gallery

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	compressionLevel = 5
	transcriptName   = "mensagens.txt"
	isoMillis        = "2006-01-02T15:04:05.000Z"
	transcriptTime   = "02/01/2006, 15:04:05"
)

var filePrefix = map[memory.Kind]string{
	memory.KindPhoto: "foto",
	memory.KindVideo: "video",
	memory.KindAudio: "audio",
}

type ExportFailure struct {
	Kind   memory.Kind `json:"kind"`
	URL    string      `json:"url"`
	Reason string      `json:"reason"`
}

type ExportReport struct {
	Total    int             `json:"total"`
	Added    int             `json:"added"`
	Messages int             `json:"messages"`
	Failures []ExportFailure `json:"failures"`
}

// ProgressFunc receives the percentage of processed files, 0 to 100.
type ProgressFunc func(percent int)

// ExportAll writes every asset of g plus the message transcript into a zip
// stream. Items that cannot be fetched are logged, listed in the report and
// left out; they still count as processed.
func (uc *GalleryUseCase) ExportAll(ctx context.Context, g *Gallery, w io.Writer, progress ProgressFunc) (*ExportReport, error) {
	ctx, span := tracer.Start(ctx, "ExportAll")
	defer span.End()

	if progress == nil {
		progress = func(int) {}
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	groups := []struct {
		kind    memory.Kind
		records []*memory.Record
	}{
		{memory.KindPhoto, g.Photos},
		{memory.KindVideo, g.Videos},
		{memory.KindAudio, g.Audios},
	}

	report := &ExportReport{Total: len(g.Photos) + len(g.Videos) + len(g.Audios), Failures: []ExportFailure{}}
	names := make(entryNames)
	processed := 0
	progress(0)

	for _, grp := range groups {
		if _, err := zw.Create(grp.kind.Folder() + "/"); err != nil {
			return nil, apperror.NewInternal("failed to write archive folder", err)
		}
		for _, rec := range grp.records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			err := uc.addAsset(ctx, zw, names, grp.kind, rec)
			processed++
			progress(percent(processed, report.Total))

			if err == nil {
				report.Added++
				metrics.RecordExportItem(string(grp.kind), "success")
				continue
			}
			if isArchiveWriteError(err) {
				span.RecordError(err)
				return nil, err
			}
			metrics.RecordExportItem(string(grp.kind), "error")
			uc.logger.Warn("Skipping asset in archive", zap.String("kind", string(grp.kind)), zap.String("url", rec.URL), zap.Error(err))
			report.Failures = append(report.Failures, ExportFailure{Kind: grp.kind, URL: rec.URL, Reason: causeText(err)})
		}
	}

	tw, err := zw.Create(transcriptName)
	if err != nil {
		return nil, apperror.NewInternal("failed to write transcript", err)
	}
	if _, err := io.WriteString(tw, uc.Transcript(g.Messages)); err != nil {
		return nil, apperror.NewInternal("failed to write transcript", err)
	}
	report.Messages = len(g.Messages)

	if err := zw.Close(); err != nil {
		return nil, apperror.NewInternal("failed to finish archive", err)
	}
	progress(100)

	span.SetAttributes(
		attribute.Int("total", report.Total),
		attribute.Int("failed", len(report.Failures)),
	)
	return report, nil
}

type archiveWriteError struct{ err error }

func (e *archiveWriteError) Error() string { return e.err.Error() }
func (e *archiveWriteError) Unwrap() error { return e.err }

func isArchiveWriteError(err error) bool {
	var target *archiveWriteError
	return errors.As(err, &target)
}

func (uc *GalleryUseCase) addAsset(ctx context.Context, zw *zip.Writer, names entryNames, kind memory.Kind, rec *memory.Record) error {
	asset, err := uc.fetcher.Fetch(ctx, rec.URL)
	if err != nil {
		return apperror.NewExportItem(rec.URL, err)
	}
	defer asset.Body.Close()

	data, err := io.ReadAll(asset.Body)
	if err != nil {
		return apperror.NewExportItem(rec.URL, err)
	}

	name := names.reserve(path.Join(kind.Folder(), AssetFilename(kind, rec, extension(asset.ContentType, data))))
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: rec.CreatedAt,
	})
	if err != nil {
		return &archiveWriteError{apperror.NewInternal("failed to add archive entry", err)}
	}
	if _, err := io.Copy(fw, bytes.NewReader(data)); err != nil {
		return &archiveWriteError{apperror.NewInternal("failed to add archive entry", err)}
	}
	return nil
}

// AssetFilename builds "<prefix>-<guest>-<created_at ISO>.<ext>".
func AssetFilename(kind memory.Kind, rec *memory.Record, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", filePrefix[kind], sanitizeName(rec.Guest.DisplayName()), rec.CreatedAt.UTC().Format(isoMillis), ext)
}

// sanitizeName keeps a guest name from introducing path separators, parent
// references or control characters into an archive entry.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return memory.DefaultGuestName
	}
	return name
}

// entryNames tracks the entries written to one archive. A repeated name gets
// a "-<n>" suffix before its extension, starting at 2.
type entryNames map[string]struct{}

func (n entryNames) reserve(name string) string {
	candidate := name
	if _, taken := n[candidate]; taken {
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		for i := 2; ; i++ {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
			if _, taken := n[candidate]; !taken {
				break
			}
		}
	}
	n[candidate] = struct{}{}
	return candidate
}

// Transcript flattens the messages into the text stored as mensagens.txt.
func (uc *GalleryUseCase) Transcript(messages []*memory.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, fmt.Sprintf("%s (%s):\n%s\n\n",
			m.Guest.DisplayName(),
			m.CreatedAt.In(uc.cfg.Location).Format(transcriptTime),
			m.Content,
		))
	}
	return strings.Join(parts, "---\n\n")
}

// extension takes the subtype of the fetched content type, sniffing the
// bytes when the server did not send a usable one.
func extension(contentType string, data []byte) string {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.TrimSpace(ct)
	if ct == "" || ct == "application/octet-stream" {
		ct = mimetype.Detect(data).String()
		ct, _, _ = strings.Cut(ct, ";")
	}
	if _, sub, ok := strings.Cut(ct, "/"); ok && sub != "" {
		return sub
	}
	return "bin"
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}

func causeText(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Cause() != nil {
		return appErr.Cause().Error()
	}
	return err.Error()
}

// ExportWedding loads the wedding gallery and streams its archive to w.
func (uc *GalleryUseCase) ExportWedding(ctx context.Context, weddingID string, w io.Writer, progress ProgressFunc) (*ExportReport, error) {
	g, err := uc.Load(ctx, weddingID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	report, err := uc.ExportAll(ctx, g, w, progress)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("Archive exported",
		zap.String("wedding_id", weddingID),
		zap.Int("added", report.Added),
		zap.Int("failed", len(report.Failures)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}
