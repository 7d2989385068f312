package user

// UserDTO is the external representation of a user. On registration it
// carries the plaintext password; on the way out it carries the stored hash
// unless redaction is enabled.
type UserDTO struct {
	ID        int64        `json:"id,omitempty"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Password  string       `json:"password,omitempty"`
	Addresses []AddressDTO `json:"addresses"`
	Phones    []PhoneDTO   `json:"phones"`
}

// AddressDTO is the external representation of an address
type AddressDTO struct {
	ID         int64  `json:"id,omitempty"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// PhoneDTO is the external representation of a phone number
type PhoneDTO struct {
	ID       int64  `json:"id,omitempty"`
	Number   string `json:"number"`
	AreaCode string `json:"area_code"`
}

// UserPatch is a partial profile update. Nil fields keep the stored value.
// Email is deliberately absent: it cannot change through this path.
type UserPatch struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// AddressPatch is a partial address update
type AddressPatch struct {
	Street     *string `json:"street"`
	Number     *string `json:"number"`
	Complement *string `json:"complement"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
}

// PhonePatch is a partial phone update
type PhonePatch struct {
	Number   *string `json:"number"`
	AreaCode *string `json:"area_code"`
}
