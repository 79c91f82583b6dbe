package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role is the verified role reported by the identity provider.
type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// Capability is an action class gated by role.
type Capability string

const (
	CapabilityCreate   Capability = "create"
	CapabilityModerate Capability = "moderate"
	CapabilityJoin     Capability = "join"
)

var roleCapabilities = map[Role][]Capability{
	RoleOrganizer:   {CapabilityCreate, CapabilityModerate},
	RoleParticipant: {CapabilityJoin},
	RoleAdmin:       {CapabilityCreate, CapabilityModerate, CapabilityJoin},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants c.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Identity is the caller as verified by the identity provider.
type Identity struct {
	UserID  string
	Email   string
	Role    Role
	Profile *Profile
}

// Require returns an authorization error unless the identity holds c.
func (id Identity) Require(c Capability) error {
	if id.Role.Can(c) {
		return nil
	}
	return NewAuthorizationError(fmt.Sprintf("role %q may not %s", id.Role, c))
}

// DisplayName picks the best human-readable name the profile offers.
func (id Identity) DisplayName() string {
	if id.Profile != nil {
		switch {
		case id.Profile.Participant != nil && id.Profile.Participant.Nickname != "":
			return id.Profile.Participant.Nickname
		case id.Profile.Organizer != nil && id.Profile.Organizer.DisplayName != "":
			return id.Profile.Organizer.DisplayName
		}
	}
	return id.UserID
}

// OrganizerProfile holds the organizer-only registration fields.
type OrganizerProfile struct {
	DisplayName  string `json:"displayName"`
	Organization string `json:"organization,omitempty"`
}

// ParticipantProfile holds the participant-only registration fields.
type ParticipantProfile struct {
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Profile is a role-tagged variant. Exactly one of Organizer or Participant is set.
type Profile struct {
	Role        Role
	Organizer   *OrganizerProfile
	Participant *ParticipantProfile
}

type profileEnvelope struct {
	Role Role            `json:"role"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the profile as {"role": ..., "data": {...}}.
func (p Profile) MarshalJSON() ([]byte, error) {
	var data any
	switch p.Role {
	case RoleOrganizer, RoleAdmin:
		data = p.Organizer
	case RoleParticipant:
		data = p.Participant
	default:
		return nil, fmt.Errorf("profile: unknown role %q", p.Role)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(profileEnvelope{Role: p.Role, Data: raw})
}

// UnmarshalJSON decodes the variant selected by role and rejects fields of other variants.
func (p *Profile) UnmarshalJSON(b []byte) error {
	var env profileEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	if len(env.Data) == 0 {
		env.Data = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.DisallowUnknownFields()

	out := Profile{Role: env.Role}
	switch env.Role {
	case RoleOrganizer, RoleAdmin:
		out.Organizer = &OrganizerProfile{}
		if err := dec.Decode(out.Organizer); err != nil {
			return fmt.Errorf("organizer profile: %w", err)
		}
	case RoleParticipant:
		out.Participant = &ParticipantProfile{}
		if err := dec.Decode(out.Participant); err != nil {
			return fmt.Errorf("participant profile: %w", err)
		}
	default:
		return fmt.Errorf("profile: unknown role %q", env.Role)
	}
	*p = out
	return nil
}
