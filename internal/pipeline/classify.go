package pipeline

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
	"os/exec"

	"github.com/klauspost/compress/gzip"

	"github.com/backmassage/metamirror/internal/catalog"
	"github.com/backmassage/metamirror/internal/columnar"
	"github.com/backmassage/metamirror/internal/fetch"
	"github.com/backmassage/metamirror/internal/torrent"
)

// Error classes reported by [Classify].
const (
	CodeNetwork = "network"
	CodeTool    = "tool"
	CodeIO      = "io"
	CodeData    = "data"
	CodeCancel  = "cancel"
	CodeUnknown = "unknown"
)

// Classify maps a stage error to a short class for the journal and metrics.
// A nil error classifies as "".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var netErr net.Error
	var exitErr *exec.ExitError
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var sysErr *os.SyscallError

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, fetch.ErrNotFound),
		errors.Is(err, fetch.ErrForbidden),
		errors.Is(err, fetch.ErrUnauthorized),
		errors.Is(err, fetch.ErrServerError),
		errors.As(err, &netErr):
		return CodeNetwork
	case errors.Is(err, torrent.ErrClientNotFound),
		errors.Is(err, torrent.ErrBadDescriptor),
		errors.Is(err, torrent.ErrNoSelection),
		errors.Is(err, exec.ErrNotFound),
		errors.As(err, &exitErr):
		return CodeTool
	case errors.Is(err, columnar.ErrMalformedLine),
		errors.Is(err, columnar.ErrNotObject),
		errors.Is(err, columnar.ErrNoColumns),
		errors.Is(err, columnar.ErrTypeMismatch),
		errors.Is(err, catalog.ErrBadTypeName),
		errors.Is(err, gzip.ErrHeader),
		errors.Is(err, gzip.ErrChecksum),
		errors.Is(err, io.ErrUnexpectedEOF):
		return CodeData
	case errors.As(err, &pathErr), errors.As(err, &linkErr), errors.As(err, &sysErr):
		return CodeIO
	}
	return CodeUnknown
}
