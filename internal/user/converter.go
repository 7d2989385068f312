package user

import "slices"

// Conversions between the external DTOs and the persisted records.
// All functions are pure; identifiers from input are ignored on create paths.

// ToUser builds a new, unsaved user from its external form
func ToUser(dto UserDTO) User {
	u := User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: dto.Password,
		Addresses:    make([]Address, 0, len(dto.Addresses)),
		Phones:       make([]Phone, 0, len(dto.Phones)),
	}
	for _, a := range dto.Addresses {
		u.Addresses = append(u.Addresses, ToAddress(a, 0))
	}
	for _, p := range dto.Phones {
		u.Phones = append(u.Phones, ToPhone(p, 0))
	}
	return u
}

// ToAddress builds a new, unsaved address attached to userID
func ToAddress(dto AddressDTO, userID int64) Address {
	return Address{
		Street:     dto.Street,
		Number:     dto.Number,
		Complement: dto.Complement,
		City:       dto.City,
		State:      dto.State,
		PostalCode: dto.PostalCode,
		UserID:     userID,
	}
}

// ToPhone builds a new, unsaved phone attached to userID
func ToPhone(dto PhoneDTO, userID int64) Phone {
	return Phone{
		Number:   dto.Number,
		AreaCode: dto.AreaCode,
		UserID:   userID,
	}
}

// FromUser mirrors a stored user, password hash included
func FromUser(u User) UserDTO {
	dto := UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Addresses: make([]AddressDTO, 0, len(u.Addresses)),
		Phones:    make([]PhoneDTO, 0, len(u.Phones)),
	}
	for _, a := range u.Addresses {
		dto.Addresses = append(dto.Addresses, FromAddress(a))
	}
	for _, p := range u.Phones {
		dto.Phones = append(dto.Phones, FromPhone(p))
	}
	return dto
}

func FromAddress(a Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

func FromPhone(p Phone) PhoneDTO {
	return PhoneDTO{
		ID:       p.ID,
		Number:   p.Number,
		AreaCode: p.AreaCode,
	}
}

// MergeUser applies the present fields of patch to a copy of existing.
// patch.Password must already be hashed. ID and Email never change.
func MergeUser(existing User, patch UserPatch) User {
	merged := existing
	merged.Addresses = slices.Clone(existing.Addresses)
	merged.Phones = slices.Clone(existing.Phones)

	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Password != nil {
		merged.PasswordHash = *patch.Password
	}
	return merged
}

// MergeAddress applies the present fields of patch to a copy of existing
func MergeAddress(existing Address, patch AddressPatch) Address {
	merged := existing
	overwrite(&merged.Street, patch.Street)
	overwrite(&merged.Number, patch.Number)
	overwrite(&merged.Complement, patch.Complement)
	overwrite(&merged.City, patch.City)
	overwrite(&merged.State, patch.State)
	overwrite(&merged.PostalCode, patch.PostalCode)
	return merged
}

// MergePhone applies the present fields of patch to a copy of existing
func MergePhone(existing Phone, patch PhonePatch) Phone {
	merged := existing
	overwrite(&merged.Number, patch.Number)
	overwrite(&merged.AreaCode, patch.AreaCode)
	return merged
}

func overwrite(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
