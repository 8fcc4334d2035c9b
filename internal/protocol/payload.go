package protocol

import "strings"

// FormPayload is the form-submitted body: the player's login.
func FormPayload(login string) []byte {
	return []byte(login)
}

// ContractRequestPayload is the get-contract body: each open market name
// followed by '/'.
func ContractRequestPayload(markets []string) []byte {
	var b strings.Builder
	for _, m := range markets {
		b.WriteString(m)
		b.WriteByte('/')
	}
	return []byte(b.String())
}
