package pkgrouter

import (
	"context"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// GetParam reads a path parameter stored in the context by httprouter.
func GetParam(ctx context.Context, key string) string {
	return httprouter.ParamsFromContext(ctx).ByName(key)
}

// GetParamInt64 parses a numeric path parameter. ok is false when the value
// is missing, malformed, or not positive.
func GetParamInt64(ctx context.Context, key string) (v int64, ok bool) {
	v, err := strconv.ParseInt(GetParam(ctx, key), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
