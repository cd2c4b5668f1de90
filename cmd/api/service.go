package main

import (
	"context"

	"github.com/UnendingLoop/percepto/internal/config"
	"github.com/UnendingLoop/percepto/internal/model"
)

type DescribeAPIService interface {
	Run(ctx context.Context, data []byte, declaredFormat string) model.Outcome
}

func modelNames(cfg config.Config) []string {
	names := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		names = append(names, string(m))
	}
	return names
}
