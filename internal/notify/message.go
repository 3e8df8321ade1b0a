// Package notify composes customer emails and delivers them in the background.
package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	// DefaultFromName is the display name on outgoing mail
	DefaultFromName = "天色の日-AmaironoHi-"
	// OrderConfirmationSubject is the subject of the order confirmation email
	OrderConfirmationSubject = "ご注文いただきありがとうございました!"
)

var orderConfirmationBody = template.Must(template.New("order_confirmation").Parse(`{{.Username}} 様

この度は{{.ShopName}}オンラインショップをご利用いただき、誠にありがとうございます。
ご注文が完了しました。商品の発送まで今しばらくお待ちください。

またのご利用を心よりお待ちしております。

{{.ShopName}}
`))

// Address is a mailbox with an optional display name
type Address struct {
	Name  string
	Email string
}

// Message is a plain-text email ready for a Sender
type Message struct {
	From    Address
	To      Address
	Subject string
	Body    string
}

// Composer renders the shop's emails from a fixed sender
type Composer struct {
	From Address
}

// NewComposer creates a composer. An empty fromName uses DefaultFromName.
func NewComposer(fromEmail, fromName string) *Composer {
	if fromName == "" {
		fromName = DefaultFromName
	}
	return &Composer{From: Address{Name: fromName, Email: fromEmail}}
}

// OrderConfirmation renders the thank-you email sent after checkout
func (c *Composer) OrderConfirmation(email, username string) (Message, error) {
	var body bytes.Buffer
	err := orderConfirmationBody.Execute(&body, struct {
		Username string
		ShopName string
	}{username, c.From.Name})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render order confirmation: %w", err)
	}

	return Message{
		From:    c.From,
		To:      Address{Name: username, Email: email},
		Subject: OrderConfirmationSubject,
		Body:    body.String(),
	}, nil
}
