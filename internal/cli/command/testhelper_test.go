package command

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
)

// ============================================================
// Test Redis Server
// ============================================================

// testServer speaks just enough RESP for the commands exercised here.
type testServer struct {
	ln net.Listener

	mu   sync.Mutex
	data map[string]string
	seen []string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &testServer{ln: ln, data: make(map[string]string)}
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handle(nc)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *testServer) addr() string {
	return "tcp://" + s.ln.Addr().String()
}

func (s *testServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *testServer) handle(nc net.Conn) {
	defer nc.Close()
	r := bufio.NewReader(nc)
	var queue [][]string
	multi := false

	for {
		req, err := resp.ReadRequest(r)
		if err != nil {
			return
		}
		args := make([]string, len(req))
		for i, a := range req {
			args[i] = string(a)
		}
		name := strings.ToLower(args[0])

		s.mu.Lock()
		s.seen = append(s.seen, name)
		s.mu.Unlock()

		var out string
		switch {
		case name == "multi":
			multi, queue = true, nil
			out = "+OK\r\n"
		case name == "exec":
			var b strings.Builder
			fmt.Fprintf(&b, "*%d\r\n", len(queue))
			for _, q := range queue {
				b.WriteString(s.reply(q))
			}
			multi, queue = false, nil
			out = b.String()
		case multi:
			queue = append(queue, args)
			out = "+QUEUED\r\n"
		case name == "subscribe":
			out = "*3\r\n$9\r\nsubscribe\r\n" + bulk(args[1]) + ":1\r\n" +
				"*3\r\n$7\r\nmessage\r\n" + bulk(args[1]) + bulk("hello")
		default:
			out = s.reply(args)
		}
		if _, err := nc.Write([]byte(out)); err != nil {
			return
		}
	}
}

func (s *testServer) reply(args []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToLower(args[0]) {
	case "ping":
		return "+PONG\r\n"
	case "set":
		s.data[args[1]] = args[2]
		return "+OK\r\n"
	case "get":
		v, ok := s.data[args[1]]
		if !ok {
			return "$-1\r\n"
		}
		return bulk(v)
	case "incr":
		var n int64
		fmt.Sscan(s.data[args[1]], &n)
		n++
		s.data[args[1]] = fmt.Sprint(n)
		return fmt.Sprintf(":%d\r\n", n)
	default:
		return fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0])
	}
}

func bulk(s string) string {
	return fmt.Sprintf("$%d\r\n%s\r\n", len(s), s)
}

// runApp runs the CLI against srv with stdin and returns stdout.
func runApp(t *testing.T, ctx context.Context, srv *testServer, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	full := []string{"redis-cli", "--address", srv.addr(), "--timeout", "1s", "--read-timeout", "1s"}
	err := app.RunContext(ctx, append(full, args...))
	if stderr.Len() > 0 {
		t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), err
}
