package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tenancy/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("rejects blank", func(t *testing.T) {
		_, err := ParseUserID("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseUserID(" u1 ")
		require.NoError(t, err)
		assert.Equal(t, UserID("u1"), id)
	})
}

func TestParseMemberID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseMemberID("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseMemberID("not-a-uuid")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseMemberID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, raw.String(), id.String())
	})
}

func TestNewMemberID_TimeOrdered(t *testing.T) {
	first, err := NewMemberID()
	require.NoError(t, err)
	second, err := NewMemberID()
	require.NoError(t, err)

	assert.Equal(t, uuid.Version(7), uuid.UUID(first).Version())
	assert.Less(t, first.String(), second.String())
}

func TestMemberID_JSON(t *testing.T) {
	id := MemberID(uuid.MustParse("0190f0a6-5b7c-7cc2-9f11-6d2a4c7b9e01"))

	raw, err := json.Marshal(map[string]MemberID{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"0190f0a6-5b7c-7cc2-9f11-6d2a4c7b9e01"}`, string(raw))

	var decoded map[string]MemberID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded["id"])
}
