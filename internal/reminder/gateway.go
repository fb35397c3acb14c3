package reminder

import "context"

// Gateway delivers a push notification to one device token and reports the
// upstream delivery status verbatim so operators can diagnose failures.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (status int, response string, err error)
}
