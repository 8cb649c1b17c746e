package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestProcessRequest_Valid(t *testing.T) {
	v := New()

	req := ProcessRequest{EmailText: "Please send 2x MD-001 to 123 Main Street.", Bundle: true}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestProcessRequest_Blank(t *testing.T) {
	v := New()

	for _, text := range []string{"", "   \n\t"} {
		if err := v.Struct(ProcessRequest{EmailText: text}); err == nil {
			t.Fatalf("expected validation error for %q, got nil", text)
		}
	}
}

func TestProcessRequest_TooLong(t *testing.T) {
	v := New()

	req := ProcessRequest{EmailText: strings.Repeat("a", MaxEmailLength+1)}
	err := v.Struct(req)
	if err == nil {
		t.Fatal("expected validation error for oversized email, got nil")
	}
	if got := FieldErrors(err)["email_text"]; got != "max_length" {
		t.Fatalf("expected max_length on email_text, got %q", got)
	}
}

func TestBindAndValidate_WritesBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bundle":true}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req ProcessRequest
	if err := BindAndValidate(c, &req, New()); err == nil {
		t.Fatal("expected error for missing email_text")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "validation_failed") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestBind_Form(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email_text=hello+there&bundle=true"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var req ProcessRequest
	if err := Bind(c, &req, New()); err != nil {
		t.Fatalf("bind form: %v", err)
	}
	if req.EmailText != "hello there" || !req.Bundle {
		t.Fatalf("unexpected request: %+v", req)
	}
}
