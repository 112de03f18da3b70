// Package staffctx carries the resolved acting staff member through request
// contexts. The actor is always passed explicitly; there is no ambient
// current-user global.
package staffctx

import (
	"context"

	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
)

type staffKey struct{}

// WithStaff stores the resolved acting staff in the context.
func WithStaff(ctx context.Context, staff *tenantdomain.Staff) context.Context {
	return context.WithValue(ctx, staffKey{}, staff)
}

// StaffFromContext returns the acting staff from context, if set.
func StaffFromContext(ctx context.Context) (*tenantdomain.Staff, bool) {
	if ctx == nil {
		return nil, false
	}
	staff, ok := ctx.Value(staffKey{}).(*tenantdomain.Staff)
	if !ok || staff == nil {
		return nil, false
	}
	return staff, true
}
