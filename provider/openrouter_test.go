package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"searchpipe/errs"
	"searchpipe/model"
	"searchpipe/provider/testutil"
)

func sseChunk(w http.ResponseWriter, delta string, finish string) {
	finishJSON := "null"
	if finish != "" {
		finishJSON = fmt.Sprintf("%q", finish)
	}
	fmt.Fprintf(w, "data: {\"id\":\"gen-1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":%s,\"finish_reason\":%s}]}\n\n", delta, finishJSON)
}

func TestOpenRouterStreamsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HTTP-Referer") != "https://ref.example" || r.Header.Get("X-Title") != "test" {
			t.Errorf("attribution headers = %q / %q", r.Header.Get("HTTP-Referer"), r.Header.Get("X-Title"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["temperature"] != 0.7 || body["stream"] != true {
			t.Errorf("request = %v", body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		sseChunk(w, `{"role":"assistant","content":"Hello"}`, "")
		sseChunk(w, `{"content":" world"}`, "")
		sseChunk(w, `{}`, "stop")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(Config{BaseURL: srv.URL, APIKey: "k", Model: "m", Temperature: 0.7, Referer: "https://ref.example", Title: "test"})
	if err != nil {
		t.Fatal(err)
	}

	var text strings.Builder
	err = p.Chat(context.Background(), testutil.SingleUserMessage("hi"), func(chunk string, calls []model.ToolInvocation) error {
		text.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if text.String() != "Hello world" {
		t.Errorf("text = %q", text.String())
	}
}

func TestOpenRouterToolCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if tools, _ := body["tools"].([]any); len(tools) != 1 {
			t.Errorf("tools = %v", body["tools"])
		}

		w.Header().Set("Content-Type", "text/event-stream")
		sseChunk(w, `{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"web_search","arguments":""}}]}`, "")
		sseChunk(w, `{"tool_calls":[{"index":0,"function":{"arguments":"{\"query\":"}}]}`, "")
		sseChunk(w, `{"tool_calls":[{"index":0,"function":{"arguments":"\"go\"}"}}]}`, "")
		sseChunk(w, `{}`, "tool_calls")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p, _ := NewOpenRouterProvider(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	var calls []model.ToolInvocation
	err := p.ChatWithTools(context.Background(), testutil.SingleUserMessage("search go"), testutil.TestMCPTools(),
		func(chunk string, tc []model.ToolInvocation) error {
			calls = append(calls, tc...)
			return nil
		})
	if err != nil {
		t.Fatalf("ChatWithTools: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Name != "web_search" || calls[0].Arguments["query"] != "go" {
		t.Errorf("call = %+v", calls[0])
	}
}

func TestOpenRouterStatusError(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","code":429}}`)
	}))
	defer srv.Close()

	p, _ := NewOpenRouterProvider(Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	err := p.Chat(context.Background(), testutil.SingleUserMessage("hi"), func(string, []model.ToolInvocation) error { return nil })

	if !errs.Is(err, errs.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}
	if !strings.Contains(errs.UserMessage(err), "429") {
		t.Errorf("UserMessage = %q", errs.UserMessage(err))
	}
	if hits != 1 {
		t.Errorf("hits = %d, retries must be disabled", hits)
	}
}
