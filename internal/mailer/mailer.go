package mailer

import (
	"embed"
	"errors"
)

const (
	FromName                  = "Storefront"
	maxRetries                = 3
	OrderConfirmationTemplate = "order_confirmation.tmpl"
	OrderStatusTemplate       = "order_status.tmpl"
	UserWelcomeTemplate       = "user_welcome.tmpl"
)

//go:embed "templates"
var FS embed.FS

var ErrDisabled = errors.New("mailer is not configured")

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
