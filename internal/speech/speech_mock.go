package speech

import "context"

// MOCK ENGINE

type mockEngine struct {
	name         string
	synthesizeFn func(ctx context.Context, text string) ([]byte, error)
	calls        int
}

func (m *mockEngine) Name() string { return m.name }

func (m *mockEngine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	m.calls++
	return m.synthesizeFn(ctx, text)
}
