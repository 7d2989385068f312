package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redmonkez12/identity-api/internal/logging"
	"github.com/redmonkez12/identity-api/internal/password"
	"github.com/redmonkez12/identity-api/internal/token"
)

// Authenticator verifies a raw token and returns the claims of a currently
// valid one. *token.Service satisfies it.
type Authenticator interface {
	Authenticate(raw string) (*token.Claims, error)
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithPasswordRedaction drops the stored hash from every returned UserDTO
func WithPasswordRedaction(redact bool) ServiceOption {
	return func(s *Service) {
		s.redactPasswordHash = redact
	}
}

// Service handles identity business logic
type Service struct {
	store              Store
	hasher             password.Hasher
	tokens             Authenticator
	redactPasswordHash bool
}

func NewService(store Store, hasher password.Hasher, tokens Authenticator, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user together with its addresses and phones
func (s *Service) Register(ctx context.Context, dto UserDTO) (*UserDTO, error) {
	logger := logging.GetLoggerFromContext(ctx)

	email := NormalizeEmail(dto.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(dto.Password) == "" {
		return nil, ErrPasswordRequired
	}

	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, &ConflictError{Email: email}
	}

	hash, err := s.hashPassword(dto.Password)
	if err != nil {
		return nil, err
	}

	u := ToUser(dto)
	u.Email = email
	u.PasswordHash = hash

	saved, err := s.store.SaveUser(ctx, &u)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// lost the race against a concurrent registration
			return nil, &ConflictError{Email: email}
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logger.Info("user registered", "user_id", saved.ID)
	return s.toDTO(saved), nil
}

// hashPassword turns hasher input errors into validation errors so the
// transport can tell them apart from internal failures.
func (s *Service) hashPassword(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, password.ErrEmptyPassword):
		return "", ErrPasswordRequired
	case errors.Is(err, password.ErrPasswordTooLong):
		return "", ErrPasswordTooLong
	default:
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
}

// FindByEmail returns the user registered under email
func (s *Service) FindByEmail(ctx context.Context, email string) (*UserDTO, error) {
	u, err := s.findUser(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.toDTO(u), nil
}

// DeleteByEmail removes the user and its records. An unknown email is not an error.
func (s *Service) DeleteByEmail(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := s.store.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	logging.GetLoggerFromContext(ctx).Info("user deleted", "email", email)
	return nil
}

// UpdateProfile applies patch to the user identified by the bearer
// authorization header. Password is re-hashed only when present.
func (s *Service) UpdateProfile(ctx context.Context, authorization string, patch UserPatch) (*UserDTO, error) {
	existing, err := s.resolveIdentity(ctx, authorization)
	if err != nil {
		return nil, err
	}

	if patch.Password != nil {
		if strings.TrimSpace(*patch.Password) == "" {
			return nil, ErrPasswordRequired
		}
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	merged := MergeUser(*existing, patch)
	saved, err := s.store.SaveUser(ctx, &merged)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound(existing.Email)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logging.GetLoggerFromContext(ctx).Info("profile updated", "user_id", saved.ID)
	return s.toDTO(saved), nil
}

// RegisterAddress attaches a new address to the authenticated user
func (s *Service) RegisterAddress(ctx context.Context, authorization string, dto AddressDTO) (*AddressDTO, error) {
	owner, err := s.resolveIdentity(ctx, authorization)
	if err != nil {
		return nil, err
	}

	a := ToAddress(dto, owner.ID)
	saved, err := s.store.SaveAddress(ctx, &a)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound(owner.Email)
		}
		return nil, fmt.Errorf("failed to save address: %w", err)
	}

	out := FromAddress(*saved)
	return &out, nil
}

// RegisterPhone attaches a new phone to the authenticated user
func (s *Service) RegisterPhone(ctx context.Context, authorization string, dto PhoneDTO) (*PhoneDTO, error) {
	owner, err := s.resolveIdentity(ctx, authorization)
	if err != nil {
		return nil, err
	}

	p := ToPhone(dto, owner.ID)
	saved, err := s.store.SavePhone(ctx, &p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound(owner.Email)
		}
		return nil, fmt.Errorf("failed to save phone: %w", err)
	}

	out := FromPhone(*saved)
	return &out, nil
}

// UpdateAddress patches the address with the given id. Ownership is not
// checked; see UpdateOwnedAddress.
func (s *Service) UpdateAddress(ctx context.Context, id int64, patch AddressPatch) (*AddressDTO, error) {
	return s.updateAddress(ctx, id, patch, 0)
}

// UpdateOwnedAddress patches the address only when it belongs to the
// authenticated user. Foreign addresses are reported as not found.
func (s *Service) UpdateOwnedAddress(ctx context.Context, authorization string, id int64, patch AddressPatch) (*AddressDTO, error) {
	owner, err := s.resolveIdentity(ctx, authorization)
	if err != nil {
		return nil, err
	}
	return s.updateAddress(ctx, id, patch, owner.ID)
}

// UpdatePhone patches the phone with the given id. Ownership is not
// checked; see UpdateOwnedPhone.
func (s *Service) UpdatePhone(ctx context.Context, id int64, patch PhonePatch) (*PhoneDTO, error) {
	return s.updatePhone(ctx, id, patch, 0)
}

// UpdateOwnedPhone patches the phone only when it belongs to the
// authenticated user. Foreign phones are reported as not found.
func (s *Service) UpdateOwnedPhone(ctx context.Context, authorization string, id int64, patch PhonePatch) (*PhoneDTO, error) {
	owner, err := s.resolveIdentity(ctx, authorization)
	if err != nil {
		return nil, err
	}
	return s.updatePhone(ctx, id, patch, owner.ID)
}

// updateAddress merges patch into the stored address. A non-zero ownerID
// restricts the update to that user's records.
func (s *Service) updateAddress(ctx context.Context, id int64, patch AddressPatch, ownerID int64) (*AddressDTO, error) {
	existing, err := s.store.FindAddressByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, recordNotFound(ResourceAddress, id)
		}
		return nil, fmt.Errorf("failed to find address: %w", err)
	}
	if ownerID != 0 && existing.UserID != ownerID {
		logging.GetLoggerFromContext(ctx).Warn("address update denied", "address_id", id, "user_id", ownerID)
		return nil, recordNotFound(ResourceAddress, id)
	}

	merged := MergeAddress(*existing, patch)
	saved, err := s.store.SaveAddress(ctx, &merged)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, recordNotFound(ResourceAddress, id)
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	out := FromAddress(*saved)
	return &out, nil
}

func (s *Service) updatePhone(ctx context.Context, id int64, patch PhonePatch, ownerID int64) (*PhoneDTO, error) {
	existing, err := s.store.FindPhoneByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, recordNotFound(ResourcePhone, id)
		}
		return nil, fmt.Errorf("failed to find phone: %w", err)
	}
	if ownerID != 0 && existing.UserID != ownerID {
		logging.GetLoggerFromContext(ctx).Warn("phone update denied", "phone_id", id, "user_id", ownerID)
		return nil, recordNotFound(ResourcePhone, id)
	}

	merged := MergePhone(*existing, patch)
	saved, err := s.store.SavePhone(ctx, &merged)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, recordNotFound(ResourcePhone, id)
		}
		return nil, fmt.Errorf("failed to update phone: %w", err)
	}

	out := FromPhone(*saved)
	return &out, nil
}

// resolveIdentity turns an Authorization header into the stored user it
// names. Header, signature and expiry failures surface as token errors.
func (s *Service) resolveIdentity(ctx context.Context, authorization string) (*User, error) {
	raw, err := token.ParseBearer(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Authenticate(raw)
	if err != nil {
		return nil, err
	}

	return s.findUser(ctx, NormalizeEmail(claims.Subject))
}

func (s *Service) findUser(ctx context.Context, email string) (*User, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, userNotFound(email)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (s *Service) toDTO(u *User) *UserDTO {
	dto := FromUser(*u)
	if s.redactPasswordHash {
		dto.Password = ""
	}
	return &dto
}
