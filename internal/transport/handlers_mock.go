package transport

import (
	"context"

	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/gin-gonic/gin"
)

type mockDescribeService struct {
	runFn func(ctx context.Context, data []byte, declaredFormat string) model.Outcome
}

func (m *mockDescribeService) Run(ctx context.Context, data []byte, declaredFormat string) model.Outcome {
	return m.runFn(ctx, data, declaredFormat)
}

func init() {
	gin.SetMode(gin.TestMode)
}
