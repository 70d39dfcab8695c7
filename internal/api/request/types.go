package request

// AddWordRequest is the request body for adding a word to the library
type AddWordRequest struct {
	Word string `json:"word"`
}

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Password string `json:"password"`
}
