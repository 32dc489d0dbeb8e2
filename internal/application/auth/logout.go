package auth

import "context"

// Logout is stateless: sessions live only in the client cookie, which the
// transport layer expires.
func (s *Service) Logout(_ context.Context) string {
	return MsgLoggedOut
}
