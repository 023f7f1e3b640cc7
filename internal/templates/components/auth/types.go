package auth

type LoginData struct {
	Next         string
	Email        string
	Error        string
	OTPEnabled   bool
	ClerkSignIn  string
	RegisterLink bool
}

type RegisterData struct {
	Next      string
	FirstName string
	LastName  string
	Email     string
	Errors    map[string]string
	Error     string
}

type OTPData struct {
	Email   string
	Next    string
	Message string
	Error   string
}
