package fixtures

import (
	"context"
	"fmt"
)

// TODO: document the worker contract
type Service interface {
	Run(ctx context.Context) error
}

type Worker struct{}

func (w *Worker) Run(ctx context.Context) error {
	logStart() // todo: structured logging
	return helper(ctx)
}

/*
Block comment spanning lines.
FIXME: not a marker for the default config
*/
func helper(ctx context.Context) error {
	fmt.Println("TODO: inside a string")
	_ = `raw string with TODO: inside`
	return ctx.Err()
}

// [GENERATED] TODO: written by marktree add
func logStart() {
	var todoCount int
	fmt.Println("start", todoCount)
}
