package rdf

import (
	"bufio"
	"io"
)

// DefaultMaxLineBytes bounds a single N-Quads line.
const DefaultMaxLineBytes = 1 << 20

// DecodeOptions limits what a decoder accepts from untrusted input.
type DecodeOptions struct {
	// MaxLineBytes rejects longer lines with ErrLineTooLong. Zero uses
	// DefaultMaxLineBytes; a negative value disables the limit.
	MaxLineBytes int
	// MaxQuads stops decoding with ErrQuadLimitExceeded once more quads are read.
	// Zero means no limit.
	MaxQuads int
}

// DefaultDecodeOptions returns the limits used by ParseNQuads.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{MaxLineBytes: DefaultMaxLineBytes}
}

func normalizeDecodeOptions(opts DecodeOptions) DecodeOptions {
	switch {
	case opts.MaxLineBytes == 0:
		opts.MaxLineBytes = DefaultMaxLineBytes
	case opts.MaxLineBytes < 0:
		opts.MaxLineBytes = 0
	}
	if opts.MaxQuads < 0 {
		opts.MaxQuads = 0
	}
	return opts
}

// readLimitedLine returns the next line including its newline. A maxBytes of zero
// reads lines of any length. The final line need not end in a newline.
func readLimitedLine(reader *bufio.Reader, maxBytes int) (string, error) {
	if maxBytes == 0 {
		line, err := reader.ReadString('\n')
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return line, err
	}

	var buffer []byte
	for {
		part, err := reader.ReadSlice('\n')
		buffer = append(buffer, part...)
		if len(buffer) > maxBytes {
			discardLine(reader)
			return "", ErrLineTooLong
		}
		switch {
		case err == nil:
			return string(buffer), nil
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && len(buffer) > 0:
			return string(buffer), nil
		default:
			return "", err
		}
	}
}

func discardLine(reader *bufio.Reader) {
	for {
		_, err := reader.ReadSlice('\n')
		if err != bufio.ErrBufferFull {
			return
		}
	}
}
