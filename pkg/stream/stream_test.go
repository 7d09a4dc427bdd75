package stream

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/protocol"
)

// fakeConn reads from a fixed buffer and records writes.
type fakeConn struct {
	r        io.Reader
	written  bytes.Buffer
	writeErr error
	closed   bool
}

func (f *fakeConn) Read(p []byte) (int, error) { return f.r.Read(p) }

func (f *fakeConn) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.written.Write(p)
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func concat(msgs ...protocol.Encodable) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, protocol.Marshal(m)...)
	}
	return out
}

func view(tick int32) model.PlayerView {
	return model.PlayerView{
		Tick:    tick,
		Players: []model.Player{{ID: 1, Name: "p1"}},
		Units:   []model.Unit{},
	}
}

func TestOrderingThroughBuffering(t *testing.T) {
	c1, c2 := net.Pipe()
	client := New(c1, model.DecodeServerMessage, Options{})
	server := New(c2, model.DecodeClientMessage, Options{})
	defer client.Close()
	defer server.Close()

	sent := []model.ClientMessage{
		model.DebugMessage{Command: model.DebugAdd{Data: model.DebugLog{Text: "M1"}}},
		model.DebugMessage{Command: model.DebugClear{}},
		model.ActionMessage{Action: model.Action{Orders: []model.UnitOrder{}}},
	}

	errCh := make(chan error, 1)
	go func() {
		for _, m := range sent {
			if err := client.Send(m); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- client.Flush()
	}()

	for i, want := range sent {
		got, err := server.Receive()
		if err != nil {
			t.Fatalf("Receive() #%d error = %v", i, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Receive() #%d = %#v, want %#v", i, got, want)
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("send side error = %v", err)
	}
}

func TestSendIsBufferedUntilFlush(t *testing.T) {
	fc := &fakeConn{r: bytes.NewReader(nil)}
	s := New(fc, model.DecodeServerMessage, Options{})

	if err := s.Send(model.DebugUpdateDone{}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if fc.written.Len() != 0 {
		t.Fatalf("bytes written before Flush = %d, want 0", fc.written.Len())
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !bytes.Equal(fc.written.Bytes(), protocol.Marshal(model.DebugUpdateDone{})) {
		t.Errorf("written = % x", fc.written.Bytes())
	}
}

func TestCloseAtBoundaryIsClean(t *testing.T) {
	data := concat(model.GetAction{PlayerView: view(1)}, model.Finish{})
	s := New(&fakeConn{r: bytes.NewReader(data)}, model.DecodeServerMessage, Options{})

	for i := 0; i < 2; i++ {
		if _, err := s.Receive(); err != nil {
			t.Fatalf("Receive() #%d error = %v", i, err)
		}
	}

	_, err := s.Receive()
	var cce *ConnectionClosedError
	if !errors.As(err, &cce) {
		t.Fatalf("Receive() error = %v, want *ConnectionClosedError", err)
	}
	if !cce.Clean || cce.Partial != 0 {
		t.Errorf("ConnectionClosedError = %+v, want clean", cce)
	}
	if !IsCleanClose(err) || !errors.Is(err, ErrConnectionClosed) {
		t.Error("clean close not recognized")
	}
}

func TestCloseMidMessage(t *testing.T) {
	full := concat(model.GetAction{PlayerView: view(1)})
	first := concat(model.Finish{})

	for _, cut := range []int{1, 4, 10, len(full) - 1} {
		data := append(append([]byte{}, first...), full[:cut]...)
		s := New(&fakeConn{r: bytes.NewReader(data)}, model.DecodeServerMessage, Options{})

		if _, err := s.Receive(); err != nil {
			t.Fatalf("cut %d: first Receive() error = %v", cut, err)
		}

		_, err := s.Receive()
		var cce *ConnectionClosedError
		if !errors.As(err, &cce) {
			t.Fatalf("cut %d: error = %v, want *ConnectionClosedError", cut, err)
		}
		if cce.Clean {
			t.Errorf("cut %d: Clean = true, want false", cut)
		}
		if cce.Partial != int64(cut) {
			t.Errorf("cut %d: Partial = %d", cut, cce.Partial)
		}
		if IsCleanClose(err) {
			t.Errorf("cut %d: IsCleanClose() = true", cut)
		}
	}
}

func TestErrorsAreSticky(t *testing.T) {
	data := []byte{0x09, 0, 0, 0}
	data = append(data, concat(model.Finish{})...)
	fc := &fakeConn{r: bytes.NewReader(data)}
	s := New(fc, model.DecodeServerMessage, Options{})

	_, err := s.Receive()
	if !errors.Is(err, protocol.ErrUnknownDiscriminant) {
		t.Fatalf("Receive() error = %v, want unknown discriminant", err)
	}

	// A valid message follows, but the stream must stay broken.
	_, err2 := s.Receive()
	if err2 != err {
		t.Errorf("second Receive() error = %v, want %v", err2, err)
	}
	if err := s.SendFlush(model.DebugUpdateDone{}); err != err2 {
		t.Errorf("SendFlush() after failure = %v, want %v", err, err2)
	}
	if fc.written.Len() != 0 {
		t.Error("bytes written after failure")
	}
	if s.Err() != err {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestWriteFailure(t *testing.T) {
	boom := errors.New("broken pipe")
	s := New(&fakeConn{r: bytes.NewReader(nil), writeErr: boom}, model.DecodeServerMessage, Options{})

	err := s.SendFlush(model.RequestDebugState{})
	var ioe *IOError
	if !errors.As(err, &ioe) || ioe.Op != "flush" {
		t.Fatalf("SendFlush() error = %v, want flush IOError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("IOError does not unwrap to cause")
	}

	if _, rerr := s.Receive(); rerr != err {
		t.Errorf("Receive() after write failure = %v, want %v", rerr, err)
	}
}

func TestConcurrentSendersDoNotInterleave(t *testing.T) {
	c1, c2 := net.Pipe()
	client := New(c1, model.DecodeServerMessage, Options{BufferSize: 16})
	server := New(c2, model.DecodeClientMessage, Options{})
	defer client.Close()
	defer server.Close()

	const writers, each = 4, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				msg := model.DebugMessage{Command: model.DebugAdd{Data: model.DebugLog{Text: "writer message with some length"}}}
				if err := client.SendFlush(msg); err != nil {
					t.Errorf("writer %d: SendFlush() error = %v", w, err)
					return
				}
			}
		}(w)
	}

	for i := 0; i < writers*each; i++ {
		msg, err := server.Receive()
		if err != nil {
			t.Fatalf("Receive() #%d error = %v", i, err)
		}
		if _, ok := msg.(model.DebugMessage); !ok {
			t.Fatalf("Receive() #%d = %T", i, msg)
		}
	}
	wg.Wait()
}

func TestReceiveWith(t *testing.T) {
	state := model.DebugState{PressedKeys: []string{"A"}}
	data := concat(state, model.Finish{})
	s := New(&fakeConn{r: bytes.NewReader(data)}, model.DecodeServerMessage, Options{})

	got, err := ReceiveWith(s, model.DecodeDebugState)
	if err != nil || !reflect.DeepEqual(got, state) {
		t.Fatalf("ReceiveWith() = %+v, %v", got, err)
	}
	msg, err := s.Receive()
	if err != nil || msg.Tag() != model.ServerFinish {
		t.Errorf("Receive() = %v, %v; want Finish", msg, err)
	}
}

func TestReadTimeout(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	s := New(c1, model.DecodeServerMessage, Options{ReadTimeout: 20 * time.Millisecond})
	defer s.Close()

	_, err := s.Receive()
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("Receive() error = %v, want *IOError", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if Class(err) != "io" {
		t.Errorf("Class() = %q, want io", Class(err))
	}
}

func TestCloseUnblocksReceive(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	s := New(c1, model.DecodeServerMessage, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Receive()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("Receive() returned nil after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() still blocked after Close")
	}
}

func TestClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ConnectionClosedError{Clean: true}, "closed"},
		{protocol.UnknownTag("ServerMessage", 4), "unknown_tag"},
		{protocol.ErrTruncated, "truncated"},
		{protocol.ErrAllocationTooLarge, "invalid"},
		{&IOError{Op: "read", Err: io.ErrClosedPipe}, "io"},
	}

	for _, tc := range tests {
		if got := Class(tc.err); got != tc.want {
			t.Errorf("Class(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
