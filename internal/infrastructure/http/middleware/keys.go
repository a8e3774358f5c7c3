package middleware

const (
	ContextKeyRequestID = "request_id"
	ContextKeyPrincipal = "principal"
	ContextKeyUserID    = "user_id"
	ContextKeyService   = "service"
	ContextKeyTrace     = "trace"

	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
)
