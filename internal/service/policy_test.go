package service

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/taskkeeper/internal/archive"
	"github.com/and161185/taskkeeper/internal/errs"
	"github.com/and161185/taskkeeper/internal/model"
)

func TestPolicyService_GetOrDefault_NoRowNoWrite(t *testing.T) {
	st := newMemStore()
	svc := NewPolicyService(&memPolicyRepo{st})
	owner := uuid.Must(uuid.NewV4())

	p, err := svc.GetOrDefault(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, archive.DefaultPolicy(owner), p)
	require.Empty(t, st.policies)
}

func TestPolicyService_GetOrDefault_Stored(t *testing.T) {
	st := newMemStore()
	owner := uuid.Must(uuid.NewV4())
	stored := archive.DefaultPolicy(owner)
	stored.AutoArchiveTime = "22:15"
	st.policies[owner] = stored

	p, err := NewPolicyService(&memPolicyRepo{st}).GetOrDefault(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, "22:15", p.AutoArchiveTime)
}

func TestPolicyService_Upsert_MergesOverDefaults(t *testing.T) {
	st := newMemStore()
	svc := NewPolicyService(&memPolicyRepo{st})
	owner := uuid.Must(uuid.NewV4())

	p, err := svc.Upsert(context.Background(), owner, model.PolicyPatch{
		UnfinishedGraceDays:  ptr(6),
		UnfinishedGraceUnit:  ptr(model.GraceUnitHour),
		ClearCleanupFinished: true,
	})
	require.NoError(t, err)
	require.Equal(t, owner, p.OwnerID)
	require.True(t, p.AutoArchiveEnabled)
	require.Equal(t, "09:00", p.AutoArchiveTime)
	require.Equal(t, 6, p.UnfinishedGraceDays)
	require.Equal(t, model.GraceUnitHour, p.UnfinishedGraceUnit)
	require.Nil(t, p.CleanupFinishedAfterDays)
	require.Equal(t, 30, *p.CleanupUnfinishedAfterDays)

	stored := st.policies[owner]
	require.Equal(t, p, stored)
}

func TestPolicyService_Upsert_Invalid(t *testing.T) {
	st := newMemStore()
	svc := NewPolicyService(&memPolicyRepo{st})
	owner := uuid.Must(uuid.NewV4())

	cases := []model.PolicyPatch{
		{AutoArchiveTime: ptr("9:00")},
		{AutoArchiveTime: ptr("24:00")},
		{UnfinishedGraceDays: ptr(721)},
		{UnfinishedGraceDays: ptr(-1)},
		{CleanupFinishedAfterDays: ptr(0)},
		{CleanupUnfinishedAfterDays: ptr(366)},
	}
	for _, c := range cases {
		_, err := svc.Upsert(context.Background(), owner, c)
		require.ErrorIs(t, err, errs.ErrValidation)
	}
	require.Empty(t, st.policies)
}

func TestPolicyService_EmptyOwner(t *testing.T) {
	_, err := NewPolicyService(&memPolicyRepo{newMemStore()}).GetOrDefault(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, errs.ErrValidation)
}
