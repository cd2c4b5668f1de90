package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeStrategy struct {
	name  string
	out   string
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Attempt(ctx context.Context, in string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out + in, nil
}

func asStrategies(fs ...*fakeStrategy) []Strategy[string, string] {
	res := make([]Strategy[string, string], 0, len(fs))
	for _, f := range fs {
		res = append(res, f)
	}
	return res
}

func TestRun_FirstSuccessWins(t *testing.T) {
	a := &fakeStrategy{name: "A", err: errors.New("rate limited")}
	b := &fakeStrategy{name: "B", out: "b:"}
	c := &fakeStrategy{name: "C", out: "c:"}

	out, name, err := Run(context.Background(), asStrategies(a, b, c), "x", Policy{})
	require.NoError(t, err)
	require.Equal(t, "b:x", out)
	require.Equal(t, "B", name)
	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls)
	require.Equal(t, 0, c.calls)
}

func TestRun_Exhausted(t *testing.T) {
	a := &fakeStrategy{name: "A", err: errors.New("timeout")}
	b := &fakeStrategy{name: "B", err: errors.New("503")}
	c := &fakeStrategy{name: "C", err: errors.New("429")}

	var logged []string
	_, _, err := Run(context.Background(), asStrategies(a, b, c), "x", Policy{
		OnFailure: func(name string, err error) { logged = append(logged, name) },
	})

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	require.Len(t, ex.Attempts, 3)
	require.Equal(t, "A", ex.Attempts[0].Name)
	require.EqualError(t, ex.Attempts[2].Err, "429")
	require.Equal(t, []string{"A", "B", "C"}, logged)
}

func TestRun_Abort(t *testing.T) {
	fatal := errors.New("bad credentials")
	a := &fakeStrategy{name: "A", err: fatal}
	b := &fakeStrategy{name: "B", out: "b:"}

	_, name, err := Run(context.Background(), asStrategies(a, b), "x", Policy{
		Abort: func(err error) bool { return errors.Is(err, fatal) },
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, "A", name)
	require.Equal(t, 0, b.calls)
}

func TestRun_NoStrategies(t *testing.T) {
	_, _, err := Run[string, string](context.Background(), nil, "x", Policy{})
	require.ErrorIs(t, err, ErrNoStrategies)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &fakeStrategy{name: "A", out: "a:"}
	_, _, err := Run(ctx, asStrategies(a), "x", Policy{})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, a.calls)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
