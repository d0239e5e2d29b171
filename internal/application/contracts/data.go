package contracts

import (
	"fmt"
	"strings"
	"time"

	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/percent"
)

const dateLayout = "January 2, 2006"

// BuildContractData flattens a locked song credit into template variables. Percentages are
// formatted with two decimals; missing optional fields are empty strings so {% if %} treats
// them as false.
func BuildContractData(song *domain.Song, credit *domain.SongCollaborator, collaborator *domain.Collaborator, entities []domain.SongPublishingEntity, now time.Time) map[string]any {
	publishing := percent.PtrFromNullable(credit.PublishingOwnership)
	master := percent.PtrFromNullable(credit.MasterOwnership)
	label := percent.PtrFromNullable(song.LabelMasterShare)

	publishers := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		if !e.OwnershipPercentage.Valid {
			continue
		}
		name := ""
		pro := ""
		if e.PublishingEntity != nil {
			name = e.PublishingEntity.Name
			pro = deref(e.PublishingEntity.PROAffiliation)
		}
		publishers = append(publishers, map[string]any{
			"name":  name,
			"share": formatPct(percent.PtrFromNullable(e.OwnershipPercentage)),
			"pro":   pro,
		})
	}

	data := map[string]any{
		"song_title":            song.Title,
		"song_isrc":             deref(song.ISRC),
		"release_date":          formatDate(song.ReleaseDate),
		"collaborator_name":     collaborator.LegalName(),
		"stage_name":            deref(collaborator.StageName),
		"display_name":          collaborator.DisplayName(),
		"collaborator_email":    deref(collaborator.Email),
		"pro_affiliation":       deref(collaborator.PROAffiliation),
		"ipi_number":            deref(collaborator.IPINumber),
		"publisher_name":        deref(collaborator.PublisherName),
		"address":               deref(collaborator.Address),
		"role":                  string(credit.RoleInSong),
		"role_label":            roleLabel(credit.RoleInSong),
		"contract_type":         string(constants.ContractTypeFor(credit.RoleInSong)),
		"publishing_percentage": formatPct(publishing),
		"master_percentage":     formatPct(master),
		"has_publishing":        publishing != nil && *publishing > 0,
		"has_master":            master != nil && *master > 0,
		"label_master_share":    formatPct(label),
		"publishers":            publishers,
		"effective_date":        now.Format(dateLayout),
		"year":                  now.Year(),
	}
	if song.PublishingLockedAt != nil {
		data["publishing_locked_at"] = song.PublishingLockedAt.Format(dateLayout)
	}
	if song.MasterLockedAt != nil {
		data["master_locked_at"] = song.MasterLockedAt.Format(dateLayout)
	}
	return data
}

func formatPct(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *p)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func roleLabel(role constants.SongRole) string {
	r := string(role)
	if r == "" {
		return ""
	}
	return strings.ToUpper(r[:1]) + r[1:]
}
