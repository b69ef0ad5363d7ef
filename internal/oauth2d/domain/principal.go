package domain

// Principal is an authenticated resource owner. It only lives for the
// duration of a request.
type Principal struct {
	Subject     string
	Authorities []string
}
