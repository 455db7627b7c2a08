package cmd

import (
	"github.com/haraqa/diskpipe"
	"github.com/haraqa/diskpipe/internal/durable"
	"github.com/haraqa/diskpipe/internal/framing"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/haraqa/diskpipe/internal/zeroc"
	"github.com/pkg/errors"
)

// exit statuses from sysexits.h
const (
	exitOK          = 0
	exitUsage       = 64
	exitNoInput     = 66
	exitUnavailable = 69
	exitSoftware    = 70
	exitOSErr       = 71
	exitIOErr       = 74
)

// usageError marks errors in how the command was invoked
type usageError struct {
	error
}

// osError marks failures to obtain an OS resource
type osError struct {
	error
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		return exitUsage
	}
	var oerr osError
	if errors.As(err, &oerr) {
		return exitOSErr
	}

	switch errors.Cause(err) {
	case diskpipe.ErrNoInput:
		return exitNoInput
	case wait.ErrSubscribe:
		return exitOSErr
	case durable.ErrTooLarge:
		return exitUnavailable
	case durable.ErrShortWrite,
		zeroc.ErrShortWrite,
		zeroc.ErrOvershoot,
		framing.ErrOverflow,
		wait.ErrGaveUp,
		diskpipe.ErrTruncated,
		diskpipe.ErrCorrupt:
		return exitSoftware
	}
	return exitIOErr
}
