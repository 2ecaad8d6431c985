package util

import (
	"net/http/httptest"
	"strings"
	"testing"

	"shop-assistant/internal/app/models"
)

func TestBytesMD5(t *testing.T) {
	if got := BytesMD5([]byte("hello")); got != "5d41402abc4b2a76b9719d911017c592" {
		t.Fatalf("BytesMD5 = %s", got)
	}
}

func TestWriteSSE(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WritePhase(rec, "awaiting_api"); err != nil {
		t.Fatal(err)
	}
	msg := models.Message{Role: models.RoleAssistant, Content: []models.ContentBlock{models.TextBlock("hi")}}
	if err := WriteMessage(rec, 1, msg); err != nil {
		t.Fatal(err)
	}
	WriteDone(rec)

	body := rec.Body.String()
	for _, want := range []string{
		`data: {"phase":"awaiting_api","type":"phase"}` + "\n\n",
		`"type":"message"`,
		`"index":1`,
		"data: [DONE]\n\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if !rec.Flushed {
		t.Error("expected flush")
	}
}

func TestWriteSSEUnsupported(t *testing.T) {
	if err := WriteSSE(httptest.NewRecorder(), "x", 42); err == nil {
		t.Fatal("expected error for unsupported data")
	}
}
