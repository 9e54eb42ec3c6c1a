package llm

import "context"

// MockClient permite tests sin cargar un modelo real.
type MockClient struct {
	Response   string
	LoadErr    error
	Err        error
	Prompts    []string
	LoadCalls  int
	CloseCalls int
}

func (m *MockClient) Load() error {
	m.LoadCalls++
	return m.LoadErr
}

func (m *MockClient) Loaded() bool {
	return m.LoadCalls > 0 && m.LoadErr == nil
}

func (m *MockClient) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	return m.Response, m.Err
}

func (m *MockClient) Close() {
	m.CloseCalls++
}
