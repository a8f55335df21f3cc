package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// ResponseRecorder wraps ResponseWriter, captures the status code and runs a hook
// just before the first byte of the response goes out.
type ResponseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wrote       bool
	beforeWrite func(http.ResponseWriter)
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

// SetBeforeWrite registers fn to run once, before headers are flushed.
func (rw *ResponseRecorder) SetBeforeWrite(fn func(http.ResponseWriter)) {
	rw.beforeWrite = fn
}

func (rw *ResponseRecorder) fire() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.beforeWrite != nil {
		rw.beforeWrite(rw.ResponseWriter)
	}
}

func (rw *ResponseRecorder) WriteHeader(statusCode int) {
	if rw.wrote {
		return
	}
	rw.fire()
	rw.status = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	rw.fire()
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

func (rw *ResponseRecorder) Status() int { return rw.status }

// Written reports whether headers have been sent.
func (rw *ResponseRecorder) Written() bool { return rw.wrote }

// BytesWritten returns the body size written so far.
func (rw *ResponseRecorder) BytesWritten() int64 { return rw.bytes }

// Flush forwards to the underlying writer when it supports streaming.
func (rw *ResponseRecorder) Flush() {
	rw.fire()
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets the WebSocket upgrader take over the connection.
func (rw *ResponseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("middleware: response writer does not support hijacking")
	}
	rw.wrote = true
	rw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *ResponseRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
