package contextx

import "context"

// WithOperation returns a derived context that carries the name of the
// upstream operation being orchestrated.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext extracts the operation name stored in ctx.
// It returns an empty string when no operation is present.
func OperationFromContext(ctx context.Context) string {
	op, _ := ctx.Value(operationKey).(string)
	return op
}
