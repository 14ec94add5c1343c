package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestErrorResponse_Error(t *testing.T) {
	e := ErrorResponse{Message: "Query failed: timeout"}
	if e.Error() != "Query failed: timeout" {
		t.Fatalf("unexpected %q", e.Error())
	}
	e2 := ErrorResponse{Message: "Missing parameters", ErrorDetails: "EOF"}
	if e2.Error() != "Missing parameters: EOF" {
		t.Fatalf("unexpected %q", e2.Error())
	}
}

func TestNewErrorResponse(t *testing.T) {
	e := NewErrorResponse("msg", nil)
	if e.Message != "msg" || e.ErrorDetails != "" {
		t.Fatalf("unexpected %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Fatalf("timestamp not set")
	}

	e2 := NewErrorResponse("msg", errors.New("boom"))
	if e2.ErrorDetails != "boom" || e2.Message != "msg" {
		t.Fatalf("unexpected %+v", e2)
	}
}

func TestErrorResponse_JSONShape(t *testing.T) {
	b, err := json.Marshal(NewErrorResponse("No data found for the given parameters", errors.New("zero rows")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"error":"No data found for the given parameters"}` {
		t.Fatalf("unexpected body %s", b)
	}
}
