// Package splits holds the pure ownership-split rules: per-row checks, ledger totals and the
// publishing/master lock transitions. Nothing here touches the database.
package splits

import (
	"fmt"
	"math"

	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/pkg/percent"
)

const (
	publishingTotal = 100.0
	writerShare     = 50.0
	publisherShare  = 50.0
	masterTotal     = 100.0
)

// Issue is a single failed rule.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is what every validator returns; rule violations never surface as Go errors.
type Result struct {
	IsValid  bool               `json:"isValid"`
	Errors   []Issue            `json:"errors"`
	Warnings []string           `json:"warnings"`
	Totals   map[string]float64 `json:"totals"`
}

// CollaboratorSplit is one SongCollaborator row's proposed share in percentage units.
// OtherRoles are the roles the same collaborator holds on the song through other rows.
type CollaboratorSplit struct {
	SongCollaboratorID string
	CollaboratorID     string
	Role               constants.SongRole
	OtherRoles         []constants.SongRole
	Percentage         float64
}

// EntitySplit is a publishing entity's share of the publisher's pool in percentage units.
type EntitySplit struct {
	PublishingEntityID string
	Percentage         float64
}

// CombinedPublishing groups the writer's share rows and publisher's share rows of one song.
type CombinedPublishing struct {
	Collaborators []CollaboratorSplit
	Entities      []EntitySplit
}

type ledger int

const (
	publishingLedger ledger = iota
	masterLedger
)

func newResult() Result {
	return Result{Errors: []Issue{}, Warnings: []string{}, Totals: map[string]float64{}}
}

func (r *Result) addError(field, code, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Issue{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) finish() Result {
	r.IsValid = len(r.Errors) == 0
	return *r
}

// ValidatePublishingSplits checks a single publishing pool that must total 100%.
func ValidatePublishingSplits(splits []CollaboratorSplit, allowPartial bool) Result {
	res := newResult()
	total := checkCollaboratorRows(&res, "splits", splits, publishingLedger)
	res.Totals["publishing"] = total
	checkPool(&res, "splits", CodeInvalidTotal, "Publishing splits", total, publishingTotal, allowPartial)
	return res.finish()
}

// ValidateCombinedPublishingSplits checks the writer's share (collaborators, 50%) and the
// publisher's share (entities, 50%) as two independent pools.
func ValidateCombinedPublishingSplits(in CombinedPublishing, allowPartial bool) Result {
	res := newResult()
	writers := checkCollaboratorRows(&res, "collaborators", in.Collaborators, publishingLedger)
	publishers := checkEntityRows(&res, in.Entities)
	res.Totals["writer"] = writers
	res.Totals["publisher"] = publishers
	checkPool(&res, "collaborators", CodeInvalidWriterShare, "Writer's share", writers, writerShare, allowPartial)
	checkPool(&res, "publishingEntities", CodeInvalidPublisherShare, "Publisher's share", publishers, publisherShare, allowPartial)
	return res.finish()
}

// ValidateMasterSplits checks master ownership: master-eligible collaborator rows plus the
// label's scalar share must total 100%. Label-role rows are not part of the ledger.
func ValidateMasterSplits(splits []CollaboratorSplit, labelShare *float64, allowPartial bool) Result {
	res := newResult()
	total := checkCollaboratorRows(&res, "splits", splits, masterLedger)
	if labelShare != nil {
		checkBounds(&res, "labelMasterShare", *labelShare)
		total += *labelShare
		res.Totals["label"] = *labelShare
	}
	res.Totals["master"] = total
	checkPool(&res, "splits", CodeInvalidTotal, "Master splits", total, masterTotal, allowPartial)
	return res.finish()
}

// checkCollaboratorRows applies per-row rules and returns the sum counted toward the ledger.
func checkCollaboratorRows(res *Result, prefix string, splits []CollaboratorSplit, l ledger) float64 {
	var total float64
	seenRows := map[string]int{}
	seenRoles := map[string]int{}
	for i, s := range splits {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		checkBounds(res, field+".percentage", s.Percentage)

		if s.SongCollaboratorID != "" {
			if first, ok := seenRows[s.SongCollaboratorID]; ok {
				res.addError(field+".songCollaboratorId", CodeDuplicateSongCollaborators,
					"Song collaborator %s appears more than once (first at %s[%d])", s.SongCollaboratorID, prefix, first)
			} else {
				seenRows[s.SongCollaboratorID] = i
			}
		}
		if s.CollaboratorID != "" && s.Role != "" {
			key := s.CollaboratorID + "|" + string(s.Role)
			if first, ok := seenRoles[key]; ok && splits[first].SongCollaboratorID != s.SongCollaboratorID {
				res.addError(field+".role", CodeDuplicateCollaboratorRole,
					"Collaborator %s already has a %s split (at %s[%d])", s.CollaboratorID, s.Role, prefix, first)
			} else if !ok {
				seenRoles[key] = i
			}
		}

		labelRow := l == masterLedger && s.Role == constants.RoleLabel
		if !labelRow {
			total += s.Percentage
		}

		if s.Role == "" {
			res.addError(field+".role", CodeMissingRole, "Role is required for every split")
			continue
		}
		if _, ok := constants.RoleConfigFor(s.Role); !ok {
			res.addError(field+".role", CodeRoleNotEligible, "Unknown role %q", s.Role)
			continue
		}

		switch {
		case l == publishingLedger:
			checkPublishingRole(res, field, s)
		case labelRow:
			if s.Percentage > 0 {
				res.addError(field+".role", CodeLabelRowNotAllowed,
					"Label master ownership is set through labelMasterShare, not a collaborator row")
			}
		default:
			checkMasterRole(res, field, s)
		}
	}
	return total
}

func checkPublishingRole(res *Result, field string, s CollaboratorSplit) {
	if s.Percentage <= 0 || constants.PublishingEligible(s.Role, s.OtherRoles) {
		return
	}
	switch s.Role {
	case constants.RoleMusician:
		res.addError(field+".percentage", CodeMusicianPublishingForbidden, "Musicians cannot hold publishing ownership (must be 0%%)")
	case constants.RoleVocalist:
		res.addError(field+".percentage", CodeVocalistPublishingForbidden, "Vocalists cannot hold publishing ownership (must be 0%%)")
	case constants.RoleProducer:
		res.addError(field+".percentage", CodeProducerPublishingForbidden, "Producers without a writer credit cannot hold publishing ownership (must be 0%%)")
	default:
		res.addError(field+".role", CodeRoleNotEligible, "Role %s is not eligible for publishing ownership", s.Role)
	}
}

func checkMasterRole(res *Result, field string, s CollaboratorSplit) {
	if s.Percentage <= 0 || constants.MasterEligible(s.Role, s.OtherRoles) {
		return
	}
	if s.Role == constants.RoleWriter {
		res.addError(field+".percentage", CodeWriterMasterForbidden, "Writers without an artist credit cannot hold master ownership (must be 0%%)")
		return
	}
	res.addError(field+".role", CodeRoleNotEligible, "Role %s is not eligible for master ownership", s.Role)
}

func checkEntityRows(res *Result, entities []EntitySplit) float64 {
	var total float64
	seen := map[string]int{}
	for i, e := range entities {
		field := fmt.Sprintf("publishingEntities[%d]", i)
		checkBounds(res, field+".percentage", e.Percentage)
		if first, ok := seen[e.PublishingEntityID]; ok {
			res.addError(field+".publishingEntityId", CodeDuplicatePublishingEntities,
				"Publishing entity %s appears more than once (first at publishingEntities[%d])", e.PublishingEntityID, first)
		} else {
			seen[e.PublishingEntityID] = i
		}
		total += e.Percentage
	}
	return total
}

func checkBounds(res *Result, field string, pct float64) {
	switch {
	case math.IsNaN(pct) || math.IsInf(pct, 0):
		res.addError(field, CodeInvalidValue, "Percentage must be a finite number")
	case pct < 0:
		res.addError(field, CodeNegativeValue, "Percentage cannot be negative (got %s)", percent.Format(pct))
	case pct > 100:
		res.addError(field, CodeExceedsMax, "Percentage cannot exceed 100%% (got %s)", percent.Format(pct))
	}
}

// checkPool compares a ledger total to its target. Partial saves may stay under the target
// but can never exceed it.
func checkPool(res *Result, field, code, label string, total, target float64, allowPartial bool) {
	if percent.Equal(total, target) {
		return
	}
	if allowPartial && total < target {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is %s of %s", label, percent.Format(total), percent.Format(target)))
		return
	}
	res.addError(field, code, "%s must total %s. Current total: %s", label, trimPercent(target), percent.Format(total))
}

func trimPercent(v float64) string {
	return fmt.Sprintf("%g%%", v)
}
