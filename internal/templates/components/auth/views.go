package auth

import (
	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

func LoginPage(data LoginData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section class="auth"><h1>Sign in</h1>`)
		b.Render(ui.Alert("error", data.Error))
		b.Raw(`<form method="post" action="/login" hx-post="/login" hx-target="closest section" hx-swap="outerHTML">`)
		b.Printf(`<input type="hidden" name="next" value="%s">`, data.Next)
		b.Render(ui.Input("Email", "email", "email", data.Email, true))
		b.Render(ui.Input("Password", "password", "password", "", true))
		b.Raw(`<button type="submit">Sign in</button></form>`)
		if data.OTPEnabled {
			b.Raw(`<h2>Or get a one-time code</h2>`)
			b.Render(OTPRequestForm(OTPData{Email: data.Email, Next: data.Next}))
		}
		if data.ClerkSignIn != "" {
			b.Printf(`<p><a class="button" href="%s">Continue with your social account</a></p>`, data.ClerkSignIn)
		}
		b.Raw(`<p>New here? <a href="/register">Create an account</a></p></section>`)
	})
}

func OTPRequestForm(data OTPData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<div id="otp"><form hx-post="/auth/otp/send" hx-target="#otp" hx-swap="outerHTML">`)
		b.Render(ui.Alert("error", data.Error))
		b.Printf(`<input type="hidden" name="next" value="%s">`, data.Next)
		b.Render(ui.Input("Email", "email", "email", data.Email, true))
		b.Raw(`<button type="submit">Email me a code</button></form></div>`)
	})
}

// OTPVerifyForm replaces the request form once a code was sent.
func OTPVerifyForm(data OTPData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<div id="otp"><form hx-post="/auth/otp/verify" hx-target="#otp" hx-swap="outerHTML">`)
		b.Render(ui.Alert("info", data.Message))
		b.Render(ui.Alert("error", data.Error))
		b.Printf(`<input type="hidden" name="email" value="%s"><input type="hidden" name="next" value="%s">`, data.Email, data.Next)
		b.Raw(`<label>Code <input name="code" inputmode="numeric" autocomplete="one-time-code" required></label>`)
		b.Raw(`<button type="submit">Verify</button></form>`)
		b.Printf(`<button hx-post="/auth/otp/send" hx-vals='{"email": "%s"}' hx-target="#otp" hx-swap="outerHTML" class="link">Send a new code</button></div>`, data.Email)
	})
}

func RegisterPage(data RegisterData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section class="auth"><h1>Create an account</h1>`)
		b.Render(ui.Alert("error", data.Error))
		b.Render(ui.FieldErrors(data.Errors))
		b.Raw(`<form method="post" action="/register" hx-post="/register" hx-target="closest section" hx-swap="outerHTML">`)
		b.Printf(`<input type="hidden" name="next" value="%s">`, data.Next)
		b.Render(ui.Input("First name", "text", "first_name", data.FirstName, true))
		b.Render(ui.Input("Last name", "text", "last_name", data.LastName, true))
		b.Render(ui.Input("Email", "email", "email", data.Email, true))
		b.Render(ui.Input("Password (8 characters or more)", "password", "password", "", true))
		b.Raw(`<button type="submit">Register</button></form>`)
		b.Raw(`<p>Already registered? <a href="/login">Sign in</a></p></section>`)
	})
}
