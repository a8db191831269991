package security

import "context"

type userInfoKey struct{}

// WithUserInfo stores the authenticated identity in the context.
func WithUserInfo(ctx context.Context, info *UserInfo) context.Context {
	return context.WithValue(ctx, userInfoKey{}, info)
}

// UserInfoFromContext returns the identity stored by WithUserInfo.
func UserInfoFromContext(ctx context.Context) (*UserInfo, bool) {
	info, ok := ctx.Value(userInfoKey{}).(*UserInfo)
	return info, ok && info != nil
}
