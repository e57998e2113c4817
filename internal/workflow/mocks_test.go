package workflow_test

import (
	"context"

	"basegraph.app/specflow/common/llm"
)

// mockLLMClient implements llm.Client for testing.
type mockLLMClient struct {
	provider   string
	completeFn func(ctx context.Context, req llm.Request) (*llm.Response, error)
	requests   []llm.Request
}

func (m *mockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return &llm.Response{Content: "", FinishReason: "stop"}, nil
}

func (m *mockLLMClient) Model() string {
	return "mock-model"
}

func (m *mockLLMClient) Provider() string {
	if m.provider == "" {
		return "mock"
	}
	return m.provider
}

func (m *mockLLMClient) callCount() int {
	return len(m.requests)
}

func respondWith(content string) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content, FinishReason: "stop", PromptTokens: 10, CompletionTokens: 20}, nil
	}
}

func failWith(err error) func(context.Context, llm.Request) (*llm.Response, error) {
	return func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, err
	}
}

const sampleSpec = "Build a login page for the mobile app."

const sampleAnalysis = `Gaps:
1. No authentication method specified (password, SSO, biometrics).
2. No lockout policy after failed attempts.
3. "Mobile app" does not say iOS, Android or both.`

const sampleTicketsJSON = `{"tickets": [
  {
    "Work Item Type": "User Story",
    "Title": "Email and password login",
    "Description": "As a user I can sign in with email and password.",
    "Acceptance Criteria": "- Valid credentials open the home screen\n- Invalid credentials show an error",
    "Priority": "1"
  },
  {
    "Work Item Type": "Task",
    "Title": "Account lockout after failed attempts",
    "Description": "Lock the account for 15 minutes after 5 failed attempts.",
    "Acceptance Criteria": ["Lockout after 5 failures", "Unlock after 15 minutes"],
    "Priority": 2
  }
]}`
