package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/molx/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/molx/internal/shared/utils"
	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

var (
	// ErrInvalidFileType rejects anything that is not a .pdb or .cif file
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrFileTooLarge rejects files above the configured upload limit
	ErrFileTooLarge = errors.New("file too large")
)

// Allowed extensions, lower-case and without the dot
var allowed = map[string]bool{
	"pdb": true,
	"cif": true,
}

// Candidate is a file as received from the client
type Candidate struct {
	Name string
	Size int64
	Data []byte
}

// UploadedFile is an accepted structure file. It is immutable.
type UploadedFile struct {
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	MIMEType   string    `json:"mime_type"`
	Label      string    `json:"label"`
	Size       int64     `json:"size"`
	SizeText   string    `json:"size_text"`
	AcceptedAt time.Time `json:"accepted_at"`

	data []byte
}

// Bytes returns a copy of the file content
func (f *UploadedFile) Bytes() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// Content reads the file content; it honours cancellation like any other
// asynchronous read in the load path.
func (f *UploadedFile) Content(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Bytes(), nil
}

// SameAs reports whether two files have the same identity (name and size)
func (f *UploadedFile) SameAs(other *UploadedFile) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Name == other.Name && f.Size == other.Size && f.Extension == other.Extension
}

// Extension returns the lower-cased text after the last dot, or "" if
// the name has no dot.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Intake accepts or rejects candidates
type Intake struct {
	maxBytes int64
	policy   *bluemonday.Policy
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time
}

// New creates an intake. maxBytes <= 0 disables the size limit.
func New(maxBytes int64, logger *zap.Logger) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{
		maxBytes: maxBytes,
		policy:   bluemonday.StrictPolicy(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithMetrics adds metrics tracking
func (in *Intake) WithMetrics(metrics *monitoring.Metrics) *Intake {
	in.metrics = metrics
	return in
}

// Accept validates c and returns the accepted file
func (in *Intake) Accept(c *Candidate) (*UploadedFile, error) {
	if c == nil {
		return nil, in.reject("missing", "", fmt.Errorf("%w: no file", ErrInvalidFileType))
	}
	if err := utils.ValidateFileName(c.Name); err != nil {
		return nil, in.reject("name", c.Name, fmt.Errorf("%w: %v", ErrInvalidFileType, err))
	}

	ext := Extension(c.Name)
	if !allowed[ext] {
		return nil, in.reject("extension", c.Name, fmt.Errorf("%w: %q", ErrInvalidFileType, c.Name))
	}

	size := c.Size
	if size <= 0 {
		size = int64(len(c.Data))
	}
	if in.maxBytes > 0 && size > in.maxBytes {
		return nil, in.reject("size", c.Name, fmt.Errorf("%w: %s exceeds %s",
			ErrFileTooLarge, utils.FormatBytes(size), utils.FormatBytes(in.maxBytes)))
	}

	data := make([]byte, len(c.Data))
	copy(data, c.Data)

	file := &UploadedFile{
		Name:       c.Name,
		Extension:  ext,
		MIMEType:   mimetype.Detect(data).String(),
		Label:      in.policy.Sanitize(c.Name),
		Size:       size,
		SizeText:   utils.FormatBytes(size),
		AcceptedAt: in.now(),
		data:       data,
	}

	in.metrics.RecordFileAccepted(ext)
	in.logger.Info("File accepted",
		zap.String("name", file.Name),
		zap.String("size", file.SizeText),
		zap.String("mime", file.MIMEType))
	return file, nil
}

func (in *Intake) reject(reason, name string, err error) error {
	in.metrics.RecordFileRejected(reason)
	in.logger.Warn("File rejected", zap.String("name", name), zap.String("reason", reason), zap.Error(err))
	return err
}
