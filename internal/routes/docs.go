package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/config"
)

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Life Coaching Cafe API</title>
  <style>
    body { font-family: Georgia, "Times New Roman", serif; max-width: 64rem; margin: 0 auto; padding: 2rem 1rem; color: #132019; }
    h1 { margin-bottom: 0.25rem; }
    p.sub { color: #536258; margin-top: 0; }
    table { border-collapse: collapse; width: 100%; margin-top: 1.5rem; }
    th, td { text-align: left; padding: 0.4rem 0.75rem; border-bottom: 1px solid #d8ddd6; }
    code { background: #f0f2ee; padding: 0.1rem 0.3rem; border-radius: 4px; }
  </style>
</head>
<body>
  <main>
    <h1>Life Coaching Cafe API</h1>
    <p class="sub">Development endpoint reference.</p>
    <table>
      <tr><th>Method</th><th>Path</th><th>Auth</th><th>Description</th></tr>
      <tr><td>POST</td><td><code>/api/auth/register</code></td><td>—</td><td>Create an account, returns a token</td></tr>
      <tr><td>POST</td><td><code>/api/auth/login</code></td><td>—</td><td>Exchange credentials for a token</td></tr>
      <tr><td>GET</td><td><code>/api/auth/me</code></td><td>bearer</td><td>Current identity, profile and subscription state</td></tr>
      <tr><td>POST</td><td><code>/api/send-message</code></td><td>bearer</td><td>Send a message to another member</td></tr>
      <tr><td>GET</td><td><code>/api/v1/conversations</code></td><td>bearer</td><td>Conversation list with previews and unread counts</td></tr>
      <tr><td>GET</td><td><code>/api/v1/conversations/:id/messages</code></td><td>bearer</td><td>Paged thread; marks returned messages read</td></tr>
      <tr><td>POST</td><td><code>/api/v1/conversations/:id/read</code></td><td>bearer</td><td>Mark a whole thread read</td></tr>
      <tr><td>GET</td><td><code>/api/v1/messages/unread-count</code></td><td>bearer</td><td>Navigation badge count</td></tr>
      <tr><td>GET</td><td><code>/api/v1/coaches</code></td><td>bearer</td><td>Coach directory with filters</td></tr>
      <tr><td>GET</td><td><code>/api/v1/coaches/:id</code></td><td>bearer</td><td>Coach detail</td></tr>
      <tr><td>POST</td><td><code>/api/v1/billing/checkout</code></td><td>bearer</td><td>Start a premium checkout session</td></tr>
      <tr><td>POST</td><td><code>/api/v1/billing/portal</code></td><td>bearer</td><td>Open the subscription management portal</td></tr>
      <tr><td>POST</td><td><code>/api/handle-payment-success</code></td><td>bearer</td><td>Post-checkout poll; 409 until the webhook lands</td></tr>
      <tr><td>POST</td><td><code>/api/stripe-webhook</code></td><td>signature</td><td>Provider events (checkout completed, subscription updated/deleted)</td></tr>
      <tr><td>GET</td><td><code>/api/v1/ws</code></td><td>bearer</td><td>WebSocket message delivery</td></tr>
    </table>
  </main>
</body>
</html>`

func registerDocsRoutes(app *fiber.App, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		c.Type("html", "utf-8")
		return c.SendString(docsIndexHTML)
	})

	return nil
}
