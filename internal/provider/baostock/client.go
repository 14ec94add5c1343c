// Package baostock implements the Baostock market-data TCP protocol:
// login, logout and paginated historical k-line queries.
package baostock

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/guttosm/quotegate/internal/logger"
	"github.com/guttosm/quotegate/internal/provider"
)

const (
	// DefaultAddr is the public Baostock endpoint.
	DefaultAddr = "public-api.baostock.com:10030"

	defaultUser     = "anonymous"
	defaultPassword = "123456"
	defaultPageSize = 10000
	defaultTimeout  = 10 * time.Second

	// Client-side error codes, raised before anything is sent.
	ErrCodeNetwork  = "client.network"
	ErrCodeParam    = "client.param"
	ErrCodeProtocol = "client.protocol"
)

const dateLayout = "2006-01-02"

var codePattern = regexp.MustCompile(`^[a-z]{2}\.\d{6}$`)

// Client dials a fresh connection for every Login.
type Client struct {
	addr     string
	user     string
	password string
	pageSize int
	dialer   *net.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials overrides the anonymous login.
func WithCredentials(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithDialTimeout sets the TCP connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialer.Timeout = d
		}
	}
}

// WithPageSize sets how many rows the server returns per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient returns a client for the Baostock server at addr.
func NewClient(addr string, opts ...Option) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	c := &Client{
		addr:     addr,
		user:     defaultUser,
		password: defaultPassword,
		pageSize: defaultPageSize,
		dialer:   &net.Dialer{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ provider.Provider = (*Client)(nil)

// Login dials the server and authenticates. The returned session owns the
// connection until Logout.
func (c *Client) Login(ctx context.Context) (provider.Session, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, &provider.Error{Code: ErrCodeNetwork, Msg: fmt.Sprintf("connect %s: %v", c.addr, err)}
	}

	s := &session{conn: conn, userID: c.user, pageSize: c.pageSize}
	if _, err := s.roundTrip(ctx, msgLoginRequest, msgLoginResponse, "login", c.user, c.password, "0"); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.L().Debug().Str("addr", c.addr).Str("user", c.user).Msg("baostock login")
	return s, nil
}

// Ping checks that the server accepts TCP connections.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

type session struct {
	conn     net.Conn
	userID   string
	pageSize int
}

// roundTrip sends one request and decodes the reply. A non-success error
// code in the reply is returned as *provider.Error.
func (s *session) roundTrip(ctx context.Context, reqType, respType string, fields ...string) (frame, error) {
	// zero deadline when ctx has none
	deadline, _ := ctx.Deadline()
	_ = s.conn.SetDeadline(deadline)

	if _, err := s.conn.Write(encodeRequest(reqType, fields...)); err != nil {
		return frame{}, &provider.Error{Code: ErrCodeNetwork, Msg: fmt.Sprintf("send: %v", err)}
	}
	raw, err := readFrame(s.conn)
	if err != nil {
		return frame{}, &provider.Error{Code: ErrCodeNetwork, Msg: fmt.Sprintf("receive: %v", err)}
	}
	f, err := decodeFrame(raw)
	if err != nil {
		return frame{}, &provider.Error{Code: ErrCodeProtocol, Msg: err.Error()}
	}
	if f.msgType != respType {
		return frame{}, &provider.Error{Code: ErrCodeProtocol, Msg: fmt.Sprintf("unexpected reply type %q, want %q", f.msgType, respType)}
	}
	if code := f.field(0); code != successCode {
		return frame{}, &provider.Error{Code: code, Msg: f.field(1)}
	}
	return f, nil
}

// QueryHistory sends query_history_k_data_plus for the first page.
func (s *session) QueryHistory(ctx context.Context, q provider.HistoryQuery) (provider.ResultSet, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	rs := &resultSet{session: s, query: q, fields: q.Fields}
	if err := rs.fetch(ctx, 1); err != nil {
		return nil, err
	}
	return rs, nil
}

// Logout ends the server session and always closes the connection.
func (s *session) Logout(ctx context.Context) error {
	_, err := s.roundTrip(ctx, msgLogoutRequest, msgLogoutResponse, "logout", s.userID, time.Now().Format("20060102150405"))
	if cerr := s.conn.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return err
}

// resultSet pages through a k-data query. A page shorter than the page size
// is the last one.
type resultSet struct {
	session *session
	query   provider.HistoryQuery
	fields  []string
	page    int
	rows    [][]string
	pos     int
	row     []string
	err     error
}

func (rs *resultSet) Fields() []string { return rs.fields }
func (rs *resultSet) Row() []string    { return rs.row }
func (rs *resultSet) Err() error       { return rs.err }

func (rs *resultSet) Next(ctx context.Context) bool {
	if rs.err != nil {
		return false
	}
	if rs.pos >= len(rs.rows) {
		if len(rs.rows) < rs.session.pageSize {
			return false
		}
		if err := rs.fetch(ctx, rs.page+1); err != nil {
			rs.err = err
			return false
		}
		if len(rs.rows) == 0 {
			return false
		}
	}
	rs.row = rs.rows[rs.pos]
	rs.pos++
	return true
}

// fetch loads the given page, replacing the buffered rows.
//
// Reply body: error_code, error_msg, method, user_id, cur_page_num,
// per_page_count, data, code, fields, start_date, end_date, frequency, adjustflag.
func (rs *resultSet) fetch(ctx context.Context, page int) error {
	q := rs.query
	f, err := rs.session.roundTrip(ctx, msgKDataRequest, msgKDataResponse,
		"query_history_k_data_plus",
		rs.session.userID,
		strconv.Itoa(page),
		strconv.Itoa(rs.session.pageSize),
		q.Code,
		strings.Join(q.Fields, ","),
		q.StartDate,
		q.EndDate,
		q.Frequency,
		q.AdjustFlag,
	)
	if err != nil {
		return err
	}

	if declared := f.field(8); declared != "" {
		rs.fields = strings.Split(declared, ",")
	}
	rows, err := parseRecords(f.field(6))
	if err != nil {
		return &provider.Error{Code: ErrCodeProtocol, Msg: err.Error()}
	}

	rs.page = page
	rs.rows = rows
	rs.pos = 0
	return nil
}

// parseRecords decodes the {"record": [[...], ...]} payload.
func parseRecords(data string) ([][]string, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("invalid record payload")
	}
	records := gjson.Get(data, "record").Array()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		cells := rec.Array()
		row := make([]string, len(cells))
		for i, cell := range cells {
			row[i] = cell.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func validateQuery(q provider.HistoryQuery) error {
	if !codePattern.MatchString(q.Code) {
		return &provider.Error{Code: ErrCodeParam, Msg: fmt.Sprintf("invalid stock code %q, expected format like sh.600000", q.Code)}
	}
	if len(q.Fields) == 0 {
		return &provider.Error{Code: ErrCodeParam, Msg: "no fields requested"}
	}
	for _, d := range []string{q.StartDate, q.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return &provider.Error{Code: ErrCodeParam, Msg: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d)}
		}
	}
	if q.StartDate != "" && q.EndDate != "" && q.StartDate > q.EndDate {
		return &provider.Error{Code: ErrCodeParam, Msg: fmt.Sprintf("start date %s is after end date %s", q.StartDate, q.EndDate)}
	}
	return nil
}
