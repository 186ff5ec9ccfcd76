package ports

import "context"

// JudgeClient sends one assessment prompt to one model and returns the raw
// reply text. Implementations must honor ctx cancellation.
type JudgeClient interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}
