package constants

// SongRole is the role a collaborator holds on a single song (SongCollaborator.role_in_song).
type SongRole string

const (
	RoleWriter   SongRole = "writer"
	RoleProducer SongRole = "producer"
	RoleArtist   SongRole = "artist"
	RoleMusician SongRole = "musician"
	RoleVocalist SongRole = "vocalist"
	RoleLabel    SongRole = "label"
)

// ContractType selects the contract template generated for a role once master splits are locked.
type ContractType string

const (
	ContractSongwriterSplit   ContractType = "songwriter_split_sheet"
	ContractProducerAgreement ContractType = "producer_agreement"
	ContractArtistAgreement   ContractType = "artist_agreement"
	ContractSessionMusician   ContractType = "session_musician_release"
	ContractVocalistRelease   ContractType = "vocalist_release"
	ContractLabelAgreement    ContractType = "label_agreement"
)

// RoleConfig describes which ledgers a role may hold a share of.
type RoleConfig struct {
	PublishingEligible bool
	MasterEligible     bool
	ContractType       ContractType
}

// roleConfigurations is never mutated after init; read it through RoleConfigFor.
var roleConfigurations = map[SongRole]RoleConfig{
	RoleWriter:   {PublishingEligible: true, MasterEligible: false, ContractType: ContractSongwriterSplit},
	RoleProducer: {PublishingEligible: false, MasterEligible: true, ContractType: ContractProducerAgreement},
	RoleArtist:   {PublishingEligible: true, MasterEligible: true, ContractType: ContractArtistAgreement},
	RoleMusician: {PublishingEligible: false, MasterEligible: true, ContractType: ContractSessionMusician},
	RoleVocalist: {PublishingEligible: false, MasterEligible: true, ContractType: ContractVocalistRelease},
	RoleLabel:    {PublishingEligible: true, MasterEligible: true, ContractType: ContractLabelAgreement},
}

// SongRoles lists the valid role_in_song values in display order.
var SongRoles = []SongRole{RoleWriter, RoleProducer, RoleArtist, RoleMusician, RoleVocalist, RoleLabel}

// RoleConfigFor returns the eligibility entry for role; ok is false for unknown roles.
func RoleConfigFor(role SongRole) (RoleConfig, bool) {
	cfg, ok := roleConfigurations[role]
	return cfg, ok
}

// IsValidSongRole returns true if role is one of SongRoles.
func IsValidSongRole(role string) bool {
	_, ok := roleConfigurations[SongRole(role)]
	return ok
}

// PublishingEligible reports whether role may hold writer's share on a song where the same
// collaborator also holds otherRoles. A producer who is also credited as writer is eligible.
func PublishingEligible(role SongRole, otherRoles []SongRole) bool {
	cfg, ok := roleConfigurations[role]
	if !ok {
		return false
	}
	if cfg.PublishingEligible {
		return true
	}
	return role == RoleProducer && hasRole(otherRoles, RoleWriter)
}

// MasterEligible reports whether role may hold master ownership. A writer who is also the
// artist on the song is eligible.
func MasterEligible(role SongRole, otherRoles []SongRole) bool {
	cfg, ok := roleConfigurations[role]
	if !ok {
		return false
	}
	if cfg.MasterEligible {
		return true
	}
	return role == RoleWriter && hasRole(otherRoles, RoleArtist)
}

// ContractTypeFor returns the contract template type for role ("" for unknown roles).
func ContractTypeFor(role SongRole) ContractType {
	return roleConfigurations[role].ContractType
}

func hasRole(roles []SongRole, want SongRole) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
