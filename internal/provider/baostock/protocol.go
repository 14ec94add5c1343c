package baostock

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Wire format of a Baostock message:
//
//	<version>\x01<type>\x01<body length, 10 digits><body>\x01<crc32>\n
//
// The body is a list of fields joined by \x01. Server replies carry the same
// 21-byte header and end with the CDATA terminator; replies whose type is in
// compressedTypes hold a zlib stream of the declared length after the header.
const (
	clientVersion = "00.8.90"
	fieldSplit    = "\x01"
	headerLength  = 21
	bodyLenDigits = 10

	msgLoginRequest   = "00"
	msgLoginResponse  = "01"
	msgLogoutRequest  = "02"
	msgLogoutResponse = "03"
	msgKDataRequest   = "95"
	msgKDataResponse  = "96"

	successCode = "0"
)

var frameTerminator = []byte("<![CDATA[]]>\n")

var compressedTypes = map[string]struct{}{
	msgKDataResponse: {},
}

// frame is a decoded server reply.
type frame struct {
	msgType string
	body    []string
}

// field returns body[i], or "" when the server sent fewer fields.
func (f frame) field(i int) string {
	if i < len(f.body) {
		return f.body[i]
	}
	return ""
}

// encodeRequest builds a request message including the crc32 trailer.
func encodeRequest(msgType string, fields ...string) []byte {
	body := strings.Join(fields, fieldSplit)
	head := fmt.Sprintf("%s%s%s%s%0*d", clientVersion, fieldSplit, msgType, fieldSplit, bodyLenDigits, utf8.RuneCountInString(body))
	msg := head + body
	crc := crc32.ChecksumIEEE([]byte(msg))
	return []byte(msg + fieldSplit + strconv.FormatUint(uint64(crc), 10) + "\n")
}

// readFrame reads from r until the accumulated bytes end with the frame terminator.
func readFrame(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 8192)
	for {
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if bytes.HasSuffix(buf.Bytes(), frameTerminator) {
			return buf.Bytes(), nil
		}
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("connection closed after %d bytes: %w", buf.Len(), io.ErrUnexpectedEOF)
			}
			return nil, err
		}
	}
}

// decodeFrame splits a raw reply into its type and body fields.
func decodeFrame(raw []byte) (frame, error) {
	if len(raw) < headerLength+len(frameTerminator) {
		return frame{}, fmt.Errorf("short frame: %d bytes", len(raw))
	}
	head := strings.Split(string(raw[:headerLength]), fieldSplit)
	if len(head) != 3 {
		return frame{}, fmt.Errorf("malformed header %q", raw[:headerLength])
	}
	payload := raw[headerLength : len(raw)-len(frameTerminator)]

	if _, ok := compressedTypes[head[1]]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(head[2]))
		if err != nil {
			return frame{}, fmt.Errorf("invalid body length %q: %w", head[2], err)
		}
		if n > len(payload) {
			return frame{}, fmt.Errorf("body length %d exceeds payload %d", n, len(payload))
		}
		zr, err := zlib.NewReader(bytes.NewReader(payload[:n]))
		if err != nil {
			return frame{}, fmt.Errorf("zlib: %w", err)
		}
		defer func() { _ = zr.Close() }()
		payload, err = io.ReadAll(zr)
		if err != nil {
			return frame{}, fmt.Errorf("zlib: %w", err)
		}
	}

	return frame{msgType: head[1], body: strings.Split(string(payload), fieldSplit)}, nil
}
