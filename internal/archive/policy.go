package archive

import (
	"regexp"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
)

// Default policy values.
const (
	DefaultAutoArchiveTime            = "09:00"
	DefaultUnfinishedGraceDays        = 1
	DefaultCleanupFinishedAfterDays   = 90
	DefaultCleanupUnfinishedAfterDays = 30

	MaxGraceDays     = 720
	MinRetentionDays = 1
	MaxRetentionDays = 365
)

var hhmm = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// DefaultPolicy returns the policy used for owners that never saved one.
func DefaultPolicy(ownerID uuid.UUID) model.ArchivePolicy {
	finished, unfinished := DefaultCleanupFinishedAfterDays, DefaultCleanupUnfinishedAfterDays
	return model.ArchivePolicy{
		OwnerID:                    ownerID,
		AutoArchiveEnabled:         true,
		AutoArchiveTime:            DefaultAutoArchiveTime,
		UnfinishedGraceDays:        DefaultUnfinishedGraceDays,
		UnfinishedGraceUnit:        model.GraceUnitDay,
		CleanupFinishedAfterDays:   &finished,
		CleanupUnfinishedAfterDays: &unfinished,
	}
}

// ApplyPatch merges patch over base.
func ApplyPatch(base model.ArchivePolicy, patch model.PolicyPatch) model.ArchivePolicy {
	out := base
	if patch.AutoArchiveEnabled != nil {
		out.AutoArchiveEnabled = *patch.AutoArchiveEnabled
	}
	if patch.AutoArchiveTime != nil {
		out.AutoArchiveTime = *patch.AutoArchiveTime
	}
	if patch.UnfinishedGraceDays != nil {
		out.UnfinishedGraceDays = *patch.UnfinishedGraceDays
	}
	if patch.UnfinishedGraceUnit != nil {
		out.UnfinishedGraceUnit = *patch.UnfinishedGraceUnit
	}
	switch {
	case patch.ClearCleanupFinished:
		out.CleanupFinishedAfterDays = nil
	case patch.CleanupFinishedAfterDays != nil:
		v := *patch.CleanupFinishedAfterDays
		out.CleanupFinishedAfterDays = &v
	}
	switch {
	case patch.ClearCleanupUnfinished:
		out.CleanupUnfinishedAfterDays = nil
	case patch.CleanupUnfinishedAfterDays != nil:
		v := *patch.CleanupUnfinishedAfterDays
		out.CleanupUnfinishedAfterDays = &v
	}
	return out
}

// ValidatePolicy checks field ranges. The first violation is returned.
func ValidatePolicy(p model.ArchivePolicy) error {
	if !hhmm.MatchString(p.AutoArchiveTime) {
		return errs.Invalid("autoArchiveTime", "must be 24-hour HH:mm")
	}
	if p.UnfinishedGraceDays < 0 || p.UnfinishedGraceDays > MaxGraceDays {
		return errs.Invalid("unfinishedGraceDays", "must be within [0,720]")
	}
	if p.UnfinishedGraceUnit != model.GraceUnitDay && p.UnfinishedGraceUnit != model.GraceUnitHour {
		return errs.Invalid("unfinishedGraceUnit", "must be DAY or HOUR")
	}
	if !retentionOK(p.CleanupFinishedAfterDays) {
		return errs.Invalid("cleanupFinishedAfterDays", "must be within [1,365] or null")
	}
	if !retentionOK(p.CleanupUnfinishedAfterDays) {
		return errs.Invalid("cleanupUnfinishedAfterDays", "must be within [1,365] or null")
	}
	return nil
}

func retentionOK(days *int) bool {
	return days == nil || (*days >= MinRetentionDays && *days <= MaxRetentionDays)
}
