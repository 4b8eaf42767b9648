package archive

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
)

func TestDefaultPolicy(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	p := DefaultPolicy(owner)

	assert.Equal(t, owner, p.OwnerID)
	assert.True(t, p.AutoArchiveEnabled)
	assert.Equal(t, "09:00", p.AutoArchiveTime)
	assert.Equal(t, 1, p.UnfinishedGraceDays)
	assert.Equal(t, model.GraceUnitDay, p.UnfinishedGraceUnit)
	require.NotNil(t, p.CleanupFinishedAfterDays)
	require.NotNil(t, p.CleanupUnfinishedAfterDays)
	assert.Equal(t, 90, *p.CleanupFinishedAfterDays)
	assert.Equal(t, 30, *p.CleanupUnfinishedAfterDays)
	require.NoError(t, ValidatePolicy(p))
}

func TestApplyPatch(t *testing.T) {
	base := DefaultPolicy(uuid.Must(uuid.NewV4()))
	off := false
	unit := model.GraceUnitHour

	got := ApplyPatch(base, model.PolicyPatch{
		AutoArchiveEnabled:         &off,
		AutoArchiveTime:            ptr("22:15"),
		UnfinishedGraceDays:        ptr(12),
		UnfinishedGraceUnit:        &unit,
		CleanupFinishedAfterDays:   ptr(7),
		ClearCleanupUnfinished:     true,
		CleanupUnfinishedAfterDays: ptr(5),
	})

	assert.False(t, got.AutoArchiveEnabled)
	assert.Equal(t, "22:15", got.AutoArchiveTime)
	assert.Equal(t, 12, got.UnfinishedGraceDays)
	assert.Equal(t, model.GraceUnitHour, got.UnfinishedGraceUnit)
	assert.Equal(t, 7, *got.CleanupFinishedAfterDays)
	assert.Nil(t, got.CleanupUnfinishedAfterDays, "clear wins over value")
	assert.Equal(t, 90, *base.CleanupFinishedAfterDays, "base untouched")
}

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name  string
		patch model.PolicyPatch
		field string
	}{
		{"bad time", model.PolicyPatch{AutoArchiveTime: ptr("24:00")}, "autoArchiveTime"},
		{"single digit hour", model.PolicyPatch{AutoArchiveTime: ptr("9:00")}, "autoArchiveTime"},
		{"negative grace", model.PolicyPatch{UnfinishedGraceDays: ptr(-1)}, "unfinishedGraceDays"},
		{"grace too large", model.PolicyPatch{UnfinishedGraceDays: ptr(721)}, "unfinishedGraceDays"},
		{"bad unit", model.PolicyPatch{UnfinishedGraceUnit: ptr(model.GraceUnit("WEEK"))}, "unfinishedGraceUnit"},
		{"finished zero", model.PolicyPatch{CleanupFinishedAfterDays: ptr(0)}, "cleanupFinishedAfterDays"},
		{"unfinished too large", model.PolicyPatch{CleanupUnfinishedAfterDays: ptr(366)}, "cleanupUnfinishedAfterDays"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ApplyPatch(DefaultPolicy(uuid.Nil), tt.patch)
			err := ValidatePolicy(p)
			require.ErrorIs(t, err, errs.ErrValidation)
			var ve *errs.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidatePolicy_Bounds(t *testing.T) {
	p := ApplyPatch(DefaultPolicy(uuid.Nil), model.PolicyPatch{
		AutoArchiveTime:            ptr("23:59"),
		UnfinishedGraceDays:        ptr(720),
		CleanupFinishedAfterDays:   ptr(1),
		CleanupUnfinishedAfterDays: ptr(365),
	})
	require.NoError(t, ValidatePolicy(p))

	p = ApplyPatch(p, model.PolicyPatch{ClearCleanupFinished: true, ClearCleanupUnfinished: true, UnfinishedGraceDays: ptr(0)})
	require.NoError(t, ValidatePolicy(p))
}
