// Package goroutineid extracts the current goroutine's id from the runtime
// stack header. It exists solely to support the UI-thread assertions in
// internal/host; nothing else should key behavior off goroutine identity.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

var header = []byte("goroutine ")

// Get returns the current goroutine id, or 0 if the stack header cannot be
// parsed (callers must treat 0 as "unknown", never as a real id).
func Get() int64 {
	bp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bp)
	buf := *bp
	n := runtime.Stack(buf, false)
	return parse(buf[:n])
}

// parse reads the id out of "goroutine N [state]:...". The first line of a
// single-goroutine stack dump always has this shape.
func parse(stack []byte) int64 {
	if !bytes.HasPrefix(stack, header) {
		return 0
	}
	rest := stack[len(header):]
	end := bytes.IndexByte(rest, ' ')
	if end <= 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
