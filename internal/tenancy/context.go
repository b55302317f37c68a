package tenancy

import "context"

type ctxKey string

const agencyKey ctxKey = "luxuryleads.agency_id"

// WithAgencyID stores the authenticated agency id in context.
func WithAgencyID(ctx context.Context, agencyID string) context.Context {
	return context.WithValue(ctx, agencyKey, agencyID)
}

// AgencyIDFromContext extracts the agency id if present.
func AgencyIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(agencyKey)
	if val == nil {
		return "", false
	}
	agencyID, ok := val.(string)
	return agencyID, ok && agencyID != ""
}
