package queue

import "github.com/pkg/errors"

var (
	// ErrEmpty is returned by a consumer that is not following when no frame starts at the read position
	ErrEmpty = errors.New("queue is empty")
	// ErrTruncated is returned when a frame was only partially written and no more data can be waited for
	ErrTruncated = errors.New("incomplete frame in queue")
	// ErrCorrupt is returned when a header or length prefix can not be valid
	ErrCorrupt = errors.New("queue file is corrupt")
	// ErrNoInput is returned when the queue file can not be opened or created
	ErrNoInput = errors.New("unable to open queue file")
)
