package dispatch

import "context"

// AdminOnly rejects requests from anyone but adminID with message.
func AdminOnly(adminID int64, message string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if adminID == 0 || req.UserID != adminID {
				return NewUserError(message, ErrNotAuthorized)
			}
			return next(ctx, req)
		}
	}
}
