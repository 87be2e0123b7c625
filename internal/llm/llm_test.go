package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/engine"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient("test-key")
	c.url = srv.URL
	return c
}

func TestDisabledClient(t *testing.T) {
	c := NewClient("")
	if c != nil || c.Enabled() {
		t.Fatal("expected a nil, disabled client")
	}
	_, err := GenerateEulogy(context.Background(), c, engine.Summary{}, nil)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	var got prompt
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"content":[{"text":"  一生平安。 "}],"usage":{"input_tokens":10,"output_tokens":5}}`))
	})

	sum := engine.Summary{Name: "李明", Gender: character.GenderMale, Age: 80, Generation: 2, Occupation: "医生"}
	text, err := GenerateEulogy(context.Background(), c, sum, nil)
	if err != nil {
		t.Fatalf("eulogy: %v", err)
	}
	if text != "一生平安。" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if got.Model != model || got.System != eulogySystem || len(got.Messages) != 1 {
		t.Fatalf("unexpected request %+v", got)
	}
	if !strings.Contains(got.Messages[0].Content, "李明") {
		t.Fatalf("expected the name in the prompt, got %q", got.Messages[0].Content)
	}
}

func TestCompleteAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	_, err := c.Complete(context.Background(), "", "hi", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable || apiErr.Body != "overloaded" {
		t.Fatalf("expected a 503 API error, got %v", err)
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	})
	if _, err := c.Complete(context.Background(), "", "hi", 10); err == nil {
		t.Fatal("expected an error for an empty response")
	}
}

func TestReplyJoinsTextBlocks(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"一生"},{"type":"tool_use"},{"type":"text","text":"平安"}]}`))
	})
	text, err := c.Complete(context.Background(), "", "hi", 10)
	if err != nil || text != "一生平安" {
		t.Fatalf("expected joined text, got %q %v", text, err)
	}
}

func TestCallBudget(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"content":[{"text":"ok"}]}`))
	})
	c.budget.perMinute = 1

	if _, err := c.Complete(context.Background(), "", "one", 10); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.Complete(context.Background(), "", "two", 10); err == nil {
		t.Fatal("expected the second call to be refused")
	}
	if calls != 1 {
		t.Fatalf("expected 1 request, got %d", calls)
	}
}

func TestEulogyPrompt(t *testing.T) {
	c := &character.Character{Name: "王芳"}
	now := time.UnixMilli(0)
	c.AddDecision("高考", "努力复习", now)
	c.Age = 30
	c.AddLifeEvent("结婚了", now)
	c.Age = 31
	c.AddLifeEvent("生了孩子", now)

	sum := engine.Summary{Name: "王芳", Gender: character.GenderFemale, Age: 88, Generation: 1, Spouse: "李强"}
	out := EulogyPrompt(sum, c)
	for _, want := range []string{"王芳（女）", "享年：88岁", "配偶：李强", "高考：努力复习"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, out)
		}
	}
	if strings.Index(out, "结婚了") > strings.Index(out, "生了孩子") {
		t.Fatalf("expected life events in age order:\n%s", out)
	}
}
