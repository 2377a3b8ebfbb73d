package client

import (
	"bufio"
	"fmt"
	"net"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hail-framework/framework-sub003/internal/redis/resp"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
)

// ============================================================
// Fake Redis Server
// ============================================================

const (
	// noReply makes the server swallow a command.
	noReply = ""
	// closeConn makes the server close the connection instead of replying.
	closeConn = "\x00close"
)

type handlerFunc func(fc *fakeConn, args []string) string

type fakeConn struct {
	id        int
	nc        net.Conn
	db        int
	multi     bool
	execAbort bool
	queue     [][]string
	channels  map[string]bool
	patterns  map[string]bool
}

type fakeServer struct {
	t  *testing.T
	ln net.Listener

	mu        sync.Mutex
	password  string
	data      map[string]string
	hashes    map[string]map[string]string
	overrides map[string]handlerFunc
	received  [][]string
	conns     []*fakeConn
	accepted  int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{
		t:         t,
		ln:        ln,
		data:      make(map[string]string),
		hashes:    make(map[string]map[string]string),
		overrides: make(map[string]handlerFunc),
	}
	go s.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		s.closeClients()
	})
	return s
}

func (s *fakeServer) addr() string {
	return "tcp://" + s.ln.Addr().String()
}

// on overrides the handling of one command.
func (s *fakeServer) on(name string, fn handlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[name] = fn
}

func (s *fakeServer) requirePass(pw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = pw
}

// commands returns every received command, lower-cased names first.
func (s *fakeServer) commands() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.received...)
}

func (s *fakeServer) commandNames() []string {
	var out []string
	for _, c := range s.commands() {
		out = append(out, c[0])
	}
	return out
}

func (s *fakeServer) connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// closeClients closes every accepted connection from the server side.
func (s *fakeServer) closeClients() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, fc := range conns {
		_ = fc.nc.Close()
	}
}

// waitClosed gives the kernel a moment to deliver a server-side close.
func waitClosed() {
	time.Sleep(50 * time.Millisecond)
}

func (s *fakeServer) serve() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		fc := &fakeConn{id: s.accepted, nc: nc, channels: map[string]bool{}, patterns: map[string]bool{}}
		s.conns = append(s.conns, fc)
		s.mu.Unlock()
		go s.handle(fc)
	}
}

func (s *fakeServer) handle(fc *fakeConn) {
	defer fc.nc.Close()
	r := bufio.NewReader(fc.nc)
	for {
		req, err := resp.ReadRequest(r)
		if err != nil {
			return
		}
		if len(req) == 0 {
			continue
		}
		args := make([]string, len(req))
		for i, a := range req {
			args[i] = string(a)
		}
		args[0] = strings.ToLower(args[0])

		s.mu.Lock()
		s.received = append(s.received, args)
		reply := s.dispatch(fc, args)
		s.mu.Unlock()

		if reply == closeConn {
			return
		}
		if reply == noReply {
			continue
		}
		if _, err := fc.nc.Write([]byte(reply)); err != nil {
			return
		}
	}
}

// dispatch runs with s.mu held.
func (s *fakeServer) dispatch(fc *fakeConn, args []string) string {
	if fn, ok := s.overrides[args[0]]; ok {
		return fn(fc, args)
	}
	if fc.multi {
		switch args[0] {
		case "exec", "discard", "multi", "watch":
		default:
			if !knownFake(args[0]) {
				fc.execAbort = true
				return errReply("ERR unknown command '" + args[0] + "'")
			}
			fc.queue = append(fc.queue, args)
			return "+QUEUED\r\n"
		}
	}
	return s.exec(fc, args)
}

func knownFake(name string) bool {
	switch name {
	case "ping", "echo", "set", "get", "del", "incr", "hset", "hmset", "hget",
		"hgetall", "hmget", "watch", "unwatch", "select", "auth", "expire", "ttl":
		return true
	}
	return false
}

func (s *fakeServer) key(fc *fakeConn, k string) string {
	return strconv.Itoa(fc.db) + ":" + k
}

func (s *fakeServer) exec(fc *fakeConn, args []string) string {
	switch args[0] {
	case "ping":
		return "+PONG\r\n"
	case "echo":
		return bulk(args[1])
	case "auth":
		if s.password == "" {
			return errReply("ERR AUTH <password> called without any password configured for the default user")
		}
		if args[len(args)-1] != s.password {
			return errReply("WRONGPASS invalid username-password pair")
		}
		return "+OK\r\n"
	case "select":
		db, err := strconv.Atoi(args[1])
		if err != nil {
			return errReply("ERR value is not an integer or out of range")
		}
		fc.db = db
		return "+OK\r\n"
	case "set":
		s.data[s.key(fc, args[1])] = args[2]
		return "+OK\r\n"
	case "get":
		v, ok := s.data[s.key(fc, args[1])]
		if !ok {
			return "$-1\r\n"
		}
		return bulk(v)
	case "del":
		n := 0
		for _, k := range args[1:] {
			if _, ok := s.data[s.key(fc, k)]; ok {
				delete(s.data, s.key(fc, k))
				n++
			}
		}
		return integer(n)
	case "incr":
		n, _ := strconv.Atoi(s.data[s.key(fc, args[1])])
		n++
		s.data[s.key(fc, args[1])] = strconv.Itoa(n)
		return integer(n)
	case "ttl":
		if _, ok := s.data[s.key(fc, args[1])]; ok {
			return integer(-1)
		}
		return integer(-2)
	case "hset", "hmset":
		h := s.hashes[s.key(fc, args[1])]
		if h == nil {
			h = make(map[string]string)
			s.hashes[s.key(fc, args[1])] = h
		}
		for i := 2; i+1 < len(args); i += 2 {
			h[args[i]] = args[i+1]
		}
		if args[0] == "hmset" {
			return "+OK\r\n"
		}
		return integer((len(args) - 2) / 2)
	case "hget":
		v, ok := s.hashes[s.key(fc, args[1])][args[2]]
		if !ok {
			return "$-1\r\n"
		}
		return bulk(v)
	case "hgetall":
		h := s.hashes[s.key(fc, args[1])]
		var items []string
		for _, f := range sortedFields(h) {
			items = append(items, bulk(f), bulk(h[f]))
		}
		return array(items...)
	case "hmget":
		h := s.hashes[s.key(fc, args[1])]
		var items []string
		for _, f := range args[2:] {
			if v, ok := h[f]; ok {
				items = append(items, bulk(v))
			} else {
				items = append(items, "$-1\r\n")
			}
		}
		return array(items...)
	case "watch", "unwatch":
		return "+OK\r\n"
	case "multi":
		if fc.multi {
			return errReply("ERR MULTI calls can not be nested")
		}
		fc.multi = true
		return "+OK\r\n"
	case "exec":
		if !fc.multi {
			return errReply("ERR EXEC without MULTI")
		}
		queue, abort := fc.queue, fc.execAbort
		fc.multi, fc.execAbort, fc.queue = false, false, nil
		if abort {
			return errReply("EXECABORT Transaction discarded because of previous errors.")
		}
		items := make([]string, 0, len(queue))
		for _, q := range queue {
			items = append(items, s.exec(fc, q))
		}
		return array(items...)
	case "discard":
		if !fc.multi {
			return errReply("ERR DISCARD without MULTI")
		}
		fc.multi, fc.execAbort, fc.queue = false, false, nil
		return "+OK\r\n"
	case "subscribe", "psubscribe":
		set := fc.channels
		if args[0] == "psubscribe" {
			set = fc.patterns
		}
		var out strings.Builder
		for _, t := range args[1:] {
			set[t] = true
			out.WriteString(array(bulk(args[0]), bulk(t), integer(len(fc.channels)+len(fc.patterns))))
		}
		return out.String()
	case "unsubscribe", "punsubscribe":
		set := fc.channels
		if args[0] == "punsubscribe" {
			set = fc.patterns
		}
		targets := args[1:]
		if len(targets) == 0 {
			targets = sortedKeys(set)
		}
		if len(targets) == 0 {
			return array(bulk(args[0]), "$-1\r\n", integer(len(fc.channels)+len(fc.patterns)))
		}
		var out strings.Builder
		for _, t := range targets {
			delete(set, t)
			out.WriteString(array(bulk(args[0]), bulk(t), integer(len(fc.channels)+len(fc.patterns))))
		}
		return out.String()
	case "publish":
		n := 0
		for _, other := range s.conns {
			if other.channels[args[1]] {
				_, _ = other.nc.Write([]byte(messageFrame(args[1], args[2])))
				n++
			}
			for p := range other.patterns {
				if ok, _ := path.Match(p, args[1]); ok {
					_, _ = other.nc.Write([]byte(pmessageFrame(p, args[1], args[2])))
					n++
				}
			}
		}
		return integer(n)
	}
	return errReply("ERR unknown command '" + args[0] + "'")
}

// ============================================================
// Reply Encoding Helpers
// ============================================================

func bulk(s string) string {
	return fmt.Sprintf("$%d\r\n%s\r\n", len(s), s)
}

func integer(n int) string {
	return fmt.Sprintf(":%d\r\n", n)
}

func errReply(msg string) string {
	return "-" + msg + "\r\n"
}

func array(items ...string) string {
	return fmt.Sprintf("*%d\r\n", len(items)) + strings.Join(items, "")
}

func messageFrame(channel, payload string) string {
	return array(bulk("message"), bulk(channel), bulk(payload))
}

func pmessageFrame(pattern, channel, payload string) string {
	return array(bulk("pmessage"), bulk(pattern), bulk(channel), bulk(payload))
}

func sortedFields(h map[string]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================
// Client Helpers
// ============================================================

func newTestClient(t *testing.T, s *fakeServer, mutate ...func(*Config)) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Address = s.addr()
	cfg.Timeout = time.Second
	cfg.ReadTimeout = time.Second
	cfg.RetryInterval = 0
	for _, m := range mutate {
		m(&cfg)
	}
	c := New(&cfg, WithLogger(logger.Nop()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}
