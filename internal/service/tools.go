package service

import (
	"errors"
	"strings"

	"github.com/UnendingLoop/percepto/internal/model"
	"github.com/wb-go/wbf/zlog"
)

func failure(stage model.Stage, err error) *model.Failure {
	kind, _ := model.KindOf(err)
	return &model.Failure{
		Stage:  stage,
		Kind:   kind,
		Reason: reasonOf(err),
		Err:    err,
	}
}

// reasonOf builds the user-facing message; joined errors are listed in order.
func reasonOf(err error) string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			parts = append(parts, reasonOf(e))
		}
		return strings.Join(parts, "; ")
	}

	var me *model.Error
	if errors.As(err, &me) && me.Msg != "" {
		return me.Msg
	}
	return err.Error()
}

func logFailure(logger zlog.Zerolog, f *model.Failure) {
	ev := logger.Warn()
	// проблемы с ключом - это наша ошибка, не пользователя
	if f.Kind == model.KindUnauthorized || f.Kind == "" {
		ev = logger.Error()
	}
	ev.Str("stage", string(f.Stage)).
		Str("kind", string(f.Kind)).
		Err(f.Err).
		Msg("request failed")
}
