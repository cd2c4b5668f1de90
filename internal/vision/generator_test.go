package vision

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/stretchr/testify/require"
)

var testImage = model.ProcessedImage{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: model.JPEG}

func scripted(answers map[string]func() (string, error)) *mockClient {
	return &mockClient{
		generateFn: func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
			if fn, ok := answers[modelID]; ok {
				return fn()
			}
			return "", fmt.Errorf("%w: unknown model %s", ErrRejected, modelID)
		},
	}
}

func fail(err error) func() (string, error) { return func() (string, error) { return "", err } }
func answer(s string) func() (string, error) { return func() (string, error) { return s, nil } }

func TestDescribe(t *testing.T) {
	models := []model.ModelCandidate{"A", "B", "C"}

	tests := []struct {
		name         string
		answers      map[string]func() (string, error)
		wantText     string
		wantModel    model.ModelCandidate
		wantKind     model.Kind
		wantCalls    []string
		wantAttempts int
	}{
		{
			name: "second candidate succeeds, third never called",
			answers: map[string]func() (string, error){
				"A": fail(fmt.Errorf("%w: 429", ErrRateLimited)),
				"B": answer("  A red bicycle leaning on a wall.  "),
				"C": answer("should not be used"),
			},
			wantText:  "A red bicycle leaning on a wall.",
			wantModel: "B",
			wantCalls: []string{"A", "B"},
		},
		{
			name: "blank answer advances",
			answers: map[string]func() (string, error){
				"A": answer(" \n\t "),
				"B": fail(fmt.Errorf("%w: 503", ErrUnavailable)),
				"C": answer("A cat on a sofa."),
			},
			wantText:  "A cat on a sofa.",
			wantModel: "C",
			wantCalls: []string{"A", "B", "C"},
		},
		{
			name: "all fail",
			answers: map[string]func() (string, error){
				"A": fail(fmt.Errorf("%w: deadline", ErrTimeout)),
				"B": fail(fmt.Errorf("%w: 503", ErrUnavailable)),
				"C": fail(fmt.Errorf("%w: 429", ErrRateLimited)),
			},
			wantKind:     model.KindAllModelsExhausted,
			wantCalls:    []string{"A", "B", "C"},
			wantAttempts: 3,
		},
		{
			name: "unauthorized stops the scan",
			answers: map[string]func() (string, error){
				"A": fail(fmt.Errorf("%w: 401", ErrUnauthorized)),
				"B": answer("unused"),
			},
			wantKind:     model.KindUnauthorized,
			wantCalls:    []string{"A"},
			wantAttempts: 1,
		},
		{
			name: "only connectivity failures",
			answers: map[string]func() (string, error){
				"A": fail(fmt.Errorf("%w: dial tcp", ErrNetwork)),
				"B": fail(fmt.Errorf("%w: i/o timeout", ErrTimeout)),
				"C": fail(fmt.Errorf("%w: no such host", ErrNetwork)),
			},
			wantKind:     model.KindNetwork,
			wantCalls:    []string{"A", "B", "C"},
			wantAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := scripted(tt.answers)
			g := NewGenerator(client, "")

			res, err := g.Describe(context.Background(), testImage, models)
			require.Equal(t, tt.wantCalls, client.calls)

			if tt.wantKind == "" {
				require.NoError(t, err)
				require.Equal(t, tt.wantText, res.Text)
				require.Equal(t, tt.wantModel, res.ModelID)
				return
			}

			require.Error(t, err)
			kind, ok := model.KindOf(err)
			require.True(t, ok)
			require.Equal(t, tt.wantKind, kind)

			var me *model.Error
			require.True(t, errors.As(err, &me))
			require.Len(t, me.Attempts, tt.wantAttempts)
		})
	}
}

func TestDescribe_NoModels(t *testing.T) {
	g := NewGenerator(scripted(nil), "")
	_, err := g.Describe(context.Background(), testImage, nil)
	require.ErrorIs(t, err, model.ErrAllModelsExhausted)
}

func TestDescribe_PassesPromptAndImage(t *testing.T) {
	var gotPrompt string
	var gotImg model.ProcessedImage
	client := &mockClient{
		generateFn: func(ctx context.Context, modelID string, img model.ProcessedImage, prompt string) (string, error) {
			gotPrompt, gotImg = prompt, img
			return "ok", nil
		},
	}

	_, err := NewGenerator(client, "describe briefly").Describe(context.Background(), testImage, []model.ModelCandidate{"A"})
	require.NoError(t, err)
	require.Equal(t, "describe briefly", gotPrompt)
	require.Equal(t, testImage, gotImg)
}

func TestDescribe_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := scripted(map[string]func() (string, error){"A": answer("unused")})
	_, err := NewGenerator(client, "").Describe(ctx, testImage, []model.ModelCandidate{"A"})
	require.ErrorIs(t, err, model.ErrNetwork)
	require.Empty(t, client.calls)
}
