// Package threaddump implements parsing of JVM thread dump text.
//
// A dump is a sequence of thread blocks. Each block's header carries the
// thread name inside double quotes, followed by a line containing the
// "Thread.State:" marker and zero or more "at ..." call frame lines,
// most recent call first, terminated by a blank line:
//
//	"http-nio-8080-exec-3" #42 daemon prio=5 os_prio=0 tid=0x... nid=0x... waiting on condition
//	   java.lang.Thread.State: WAITING (parking)
//	        at sun.misc.Unsafe.park(Native Method)
//	        at java.util.concurrent.locks.LockSupport.park(LockSupport.java:175)
package threaddump

import (
	"bytes"
	"context"
	"io"
	"strings"
)

// DefaultStateMarker is the literal that introduces a thread's state line.
// Matching is by substring, so the fully-qualified
// "java.lang.Thread.State:" form is covered as well.
const DefaultStateMarker = "Thread.State:"

// RawThread is one matched thread section before frame filtering: the state
// token and the verbatim "at ..." lines, trimmed, most recent call first.
type RawThread struct {
	State  string
	Frames []string
}

// ParserOptions holds configuration options for the dump parser.
type ParserOptions struct {
	// StateMarker is the literal that identifies the thread state line.
	StateMarker string
}

// DefaultParserOptions returns default parser options.
func DefaultParserOptions() *ParserOptions {
	return &ParserOptions{
		StateMarker: DefaultStateMarker,
	}
}

// Parser extracts per-thread sections from raw dump text.
type Parser struct {
	opts *ParserOptions
}

// NewParser creates a new thread dump parser.
func NewParser(opts *ParserOptions) *Parser {
	if opts == nil {
		opts = DefaultParserOptions()
	}
	if opts.StateMarker == "" {
		opts.StateMarker = DefaultStateMarker
	}
	return &Parser{opts: opts}
}

// Parse reads the full dump text and returns one RawThread per thread
// section whose text contains poolName as a substring. Invalid byte
// sequences are replaced rather than failing, so a partially corrupt file
// degrades to fewer or malformed records instead of aborting the run.
//
// Threads that carry a state marker but no frames (a terminal state with no
// recorded stack) yield nothing; absence of frames is not an error.
func (p *Parser) Parse(ctx context.Context, reader io.Reader, poolName string) ([]RawThread, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return p.ParseText(ctx, DecodeText(data), poolName)
}

// ParseText is Parse over already-decoded dump text.
func (p *Parser) ParseText(ctx context.Context, text string, poolName string) ([]RawThread, error) {
	// Thread headers carry the thread name in double quotes, so splitting
	// on the quote character yields alternating segments where each thread
	// block lands in its own segment.
	sections := strings.Split(text, "\"")

	var threads []RawThread
	for _, section := range sections {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !strings.Contains(section, poolName) {
			continue
		}
		if raw, ok := p.parseSection(section); ok {
			threads = append(threads, raw)
		}
	}

	return threads, nil
}

// parseSection scans one candidate segment for its state line and stack.
// A segment corresponds to exactly one thread, so only the first state
// marker is processed; a later marker in the same segment would belong to a
// concatenated snapshot and is deliberately not credited.
func (p *Parser) parseSection(section string) (RawThread, bool) {
	lines := strings.Split(section, "\n")

	for i, line := range lines {
		if !strings.Contains(line, p.opts.StateMarker) {
			continue
		}

		colon := strings.Index(line, ":")
		state := strings.TrimSpace(line[colon+1:])
		frames := collectFrames(lines[i+1:])

		if len(frames) == 0 {
			return RawThread{}, false
		}
		return RawThread{State: state, Frames: frames}, true
	}

	return RawThread{}, false
}

// collectFrames gathers the "at ..." lines following the state line. Lock
// annotation lines ("- locked <0x...>") are skipped; the first blank line
// terminates the stack.
func collectFrames(lines []string) []string {
	var frames []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "at ") {
			frames = append(frames, trimmed)
		} else if trimmed == "" {
			break
		}
	}
	return frames
}

// DecodeText decodes dump bytes best-effort: invalid UTF-8 sequences are
// replaced with the Unicode replacement character. Carriage returns are
// dropped so Windows-captured dumps tokenize the same as Unix ones.
func DecodeText(data []byte) string {
	data = bytes.ReplaceAll(data, []byte("\r"), nil)
	return string(bytes.ToValidUTF8(data, []byte("�")))
}
