package baostock

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guttosm/quotegate/internal/provider"
)

// fakeServer speaks the Baostock protocol on a loopback listener.
type fakeServer struct {
	t        *testing.T
	ln       net.Listener
	rows     [][]string
	pageSize int
	loginErr string
	queryErr string
	// silentLogout reads logout requests but never answers them.
	silentLogout bool

	mu       sync.Mutex
	requests []string // "<type>:<method>"
}

// newFakeServer applies configure before the accept loop starts.
func newFakeServer(t *testing.T, configure func(s *fakeServer)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{t: t, ln: ln, pageSize: 2}
	configure(s)
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }

func (s *fakeServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")
		head := strings.Split(line[:headerLength], fieldSplit)
		rest := line[headerLength:]
		body := strings.Split(rest[:strings.LastIndex(rest, fieldSplit)], fieldSplit)

		s.mu.Lock()
		s.requests = append(s.requests, head[1]+":"+body[0])
		s.mu.Unlock()

		var reply []byte
		switch head[1] {
		case msgLoginRequest:
			if s.loginErr != "" {
				reply = plainReply(msgLoginResponse, "10001001", s.loginErr)
			} else {
				reply = plainReply(msgLoginResponse, "0", "success", "login", body[1])
			}
		case msgLogoutRequest:
			if s.silentLogout {
				continue
			}
			reply = plainReply(msgLogoutResponse, "0", "success", "logout", body[1])
		case msgKDataRequest:
			reply = s.kdataReply(body)
		}
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func (s *fakeServer) kdataReply(body []string) []byte {
	if s.queryErr != "" {
		return compressedReply(s.t, msgKDataResponse, "10004011", s.queryErr)
	}
	page, _ := strconv.Atoi(body[2])
	perPage, _ := strconv.Atoi(body[3])
	from := (page - 1) * perPage
	to := from + perPage
	if from > len(s.rows) {
		from = len(s.rows)
	}
	if to > len(s.rows) {
		to = len(s.rows)
	}
	data, _ := json.Marshal(map[string]any{"record": s.rows[from:to]})
	return compressedReply(s.t, msgKDataResponse,
		"0", "success", "query_history_k_data_plus", body[1], body[2], body[3],
		string(data), body[4], body[5], body[6], body[7], body[8], body[9])
}

var testFields = []string{"date", "code", "open", "close"}

func testQuery() provider.HistoryQuery {
	return provider.HistoryQuery{
		Code:       "sh.600000",
		Fields:     testFields,
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-05",
		Frequency:  "d",
		AdjustFlag: "3",
	}
}

func TestClient_LoginQueryDrainLogout(t *testing.T) {
	srv := newFakeServer(t, func(s *fakeServer) {
		s.rows = [][]string{
			{"2024-01-02", "sh.600000", "6.5700", "6.6000"},
			{"2024-01-03", "sh.600000", "6.6000", "6.6200"},
			{"2024-01-04", "sh.600000", "6.6200", ""},
		}
	})

	c := NewClient(srv.addr(), WithPageSize(srv.pageSize))
	ctx := context.Background()

	sess, err := c.Login(ctx)
	require.NoError(t, err)

	rs, err := sess.QueryHistory(ctx, testQuery())
	require.NoError(t, err)
	require.Equal(t, testFields, rs.Fields())

	var got [][]string
	for rs.Next(ctx) {
		got = append(got, rs.Row())
	}
	require.NoError(t, rs.Err())
	require.Equal(t, srv.rows, got)

	require.NoError(t, sess.Logout(ctx))
	require.Equal(t, []string{
		"00:login",
		"95:query_history_k_data_plus",
		"95:query_history_k_data_plus",
		"02:logout",
	}, srv.seen())
}

func TestClient_ExactPageBoundaryStopsOnEmptyPage(t *testing.T) {
	srv := newFakeServer(t, func(s *fakeServer) {
		s.rows = [][]string{
			{"2024-01-02", "sh.600000", "1", "2"},
			{"2024-01-03", "sh.600000", "3", "4"},
		}
	})
	c := NewClient(srv.addr(), WithPageSize(2))
	ctx := context.Background()

	sess, err := c.Login(ctx)
	require.NoError(t, err)
	defer func() { _ = sess.Logout(ctx) }()

	rs, err := sess.QueryHistory(ctx, testQuery())
	require.NoError(t, err)
	n := 0
	for rs.Next(ctx) {
		n++
	}
	require.NoError(t, rs.Err())
	require.Equal(t, 2, n)
}

func TestClient_LogoutHonorsDeadline(t *testing.T) {
	srv := newFakeServer(t, func(s *fakeServer) {
		s.rows = [][]string{{"2024-01-02", "sh.600000", "1", "2"}}
		s.silentLogout = true
	})
	c := NewClient(srv.addr())

	sess, err := c.Login(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = sess.Logout(ctx)
	var pe *provider.Error
	require.True(t, errors.As(err, &pe))
	require.Equal(t, ErrCodeNetwork, pe.Code)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := newFakeServer(t, func(s *fakeServer) { s.loginErr = "user not found" })

	_, err := NewClient(srv.addr()).Login(context.Background())
	var pe *provider.Error
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "user not found", pe.Msg)
	require.Equal(t, "10001001", pe.Code)
}

func TestClient_LoginUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewClient(addr)
	_, err = c.Login(context.Background())
	var pe *provider.Error
	require.True(t, errors.As(err, &pe))
	require.Equal(t, ErrCodeNetwork, pe.Code)
	require.Error(t, c.Ping(context.Background()))
}

func TestClient_QueryRejected(t *testing.T) {
	srv := newFakeServer(t, func(s *fakeServer) { s.queryErr = "no such stock" })
	ctx := context.Background()

	sess, err := NewClient(srv.addr()).Login(ctx)
	require.NoError(t, err)
	defer func() { _ = sess.Logout(ctx) }()

	_, err = sess.QueryHistory(ctx, testQuery())
	var pe *provider.Error
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "no such stock", pe.Msg)
}

func TestValidateQuery_TableDriven(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(q *provider.HistoryQuery)
		wantErr bool
	}{
		{name: "valid", mutate: func(q *provider.HistoryQuery) {}},
		{name: "open dates", mutate: func(q *provider.HistoryQuery) { q.StartDate, q.EndDate = "", "" }},
		{name: "bare ticker", mutate: func(q *provider.HistoryQuery) { q.Code = "600000" }, wantErr: true},
		{name: "bad start date", mutate: func(q *provider.HistoryQuery) { q.StartDate = "2024/01/01" }, wantErr: true},
		{name: "inverted range", mutate: func(q *provider.HistoryQuery) { q.StartDate = "2024-02-01" }, wantErr: true},
		{name: "no fields", mutate: func(q *provider.HistoryQuery) { q.Fields = nil }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := testQuery()
			tc.mutate(&q)
			err := validateQuery(q)
			if tc.wantErr {
				var pe *provider.Error
				require.True(t, errors.As(err, &pe))
				require.Equal(t, ErrCodeParam, pe.Code)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseRecords(t *testing.T) {
	rows, err := parseRecords(`{"record":[["2024-01-02","sh.600000","6.57"],["2024-01-03","sh.600000",""]]}`)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"2024-01-02", "sh.600000", "6.57"}, {"2024-01-03", "sh.600000", ""}}, rows)

	rows, err = parseRecords("")
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = parseRecords("{not json")
	require.Error(t, err)
}
