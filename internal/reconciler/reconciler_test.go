package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

func activeRow(id, clientID int64, position int, name string) *domain.Participant {
	return &domain.Participant{
		ID:               id,
		BookingID:        10,
		ClientID:         clientID,
		DisplayName:      name,
		Position:         position,
		PaymentStatus:    domain.PaymentPending,
		IsRepresentative: position == 1,
	}
}

func paidRow(id, clientID int64, position int, name string, value float64) *domain.Participant {
	row := activeRow(id, clientID, position, name)
	row.PaymentValue = value
	row.PaymentStatus = domain.PaymentPaid
	return row
}

func TestSelectionChanged(t *testing.T) {
	old := []*domain.Participant{
		activeRow(1, 100, 1, "Анна"),
		activeRow(2, 200, 2, "Борис"),
	}

	t.Run("identical selection - no change", func(t *testing.T) {
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
			{ID: 200, Name: "Борис"},
		}
		assert.False(t, SelectionChanged(old, selection))
	})

	t.Run("reordered selection - changed", func(t *testing.T) {
		selection := []domain.ClientRef{
			{ID: 200, Name: "Борис"},
			{ID: 100, Name: "Анна"},
		}
		assert.True(t, SelectionChanged(old, selection))
	})

	t.Run("different length - changed", func(t *testing.T) {
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
		}
		assert.True(t, SelectionChanged(old, selection))
	})

	t.Run("replaced client - changed", func(t *testing.T) {
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
			{ID: 300, Name: "Вера"},
		}
		assert.True(t, SelectionChanged(old, selection))
	})
}

func TestBuildPlan_Positional(t *testing.T) {
	t.Run("same client on same position keeps payment fields", func(t *testing.T) {
		old := []*domain.Participant{
			activeRow(1, 100, 1, "Анна"),
			activeRow(2, 200, 2, "Борис"),
		}

		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна Иванова"},
			{ID: 200, Name: "Борис"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 2)
		assert.Empty(t, plan.Inserts)
		assert.Empty(t, plan.SoftDeleteIDs)

		assert.Equal(t, "Анна Иванова", plan.Updates[0].DisplayName)
		assert.Equal(t, int64(100), plan.Updates[0].ClientID)
		assert.Equal(t, 1, plan.Updates[0].Position)
		assert.True(t, plan.Updates[0].IsRepresentative)
		assert.False(t, plan.Updates[1].IsRepresentative)
	})

	t.Run("client mismatch resets payment fields", func(t *testing.T) {
		old := []*domain.Participant{
			activeRow(1, 100, 1, "Анна"),
		}
		old[0].ApplyFee = true

		selection := []domain.ClientRef{
			{ID: 300, Name: "Вера"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 1)
		assert.Equal(t, int64(300), plan.Updates[0].ClientID)
		assert.Equal(t, float64(0), plan.Updates[0].PaymentValue)
		assert.Equal(t, domain.PaymentPending, plan.Updates[0].PaymentStatus)
		assert.False(t, plan.Updates[0].ApplyFee)
	})

	t.Run("longer selection inserts default rows", func(t *testing.T) {
		old := []*domain.Participant{
			activeRow(1, 100, 1, "Анна"),
		}
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
			{ID: 200, Name: "Борис"},
			{ID: 300, Name: "Вера"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 1)
		require.Len(t, plan.Inserts, 2)
		assert.Equal(t, int64(200), plan.Inserts[0].ClientID)
		assert.Equal(t, 2, plan.Inserts[0].Position)
		assert.Equal(t, int64(300), plan.Inserts[1].ClientID)
		assert.Equal(t, 3, plan.Inserts[1].Position)
		assert.False(t, plan.Inserts[0].IsRepresentative)
	})

	t.Run("shorter selection soft-deletes the tail", func(t *testing.T) {
		old := []*domain.Participant{
			activeRow(1, 100, 1, "Анна"),
			activeRow(2, 200, 2, "Борис"),
			activeRow(3, 300, 3, "Вера"),
		}
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 1)
		assert.Empty(t, plan.Inserts)
		assert.ElementsMatch(t, []int64{2, 3}, plan.SoftDeleteIDs)
	})

	t.Run("does not mutate input rows", func(t *testing.T) {
		old := []*domain.Participant{
			activeRow(1, 100, 1, "Анна"),
		}
		selection := []domain.ClientRef{
			{ID: 300, Name: "Вера"},
		}

		_ = BuildPlan(10, old, selection)

		assert.Equal(t, int64(100), old[0].ClientID)
		assert.Equal(t, "Анна", old[0].DisplayName)
	})
}

func TestBuildPlan_Identity(t *testing.T) {
	t.Run("reorder preserves payment fields by identity", func(t *testing.T) {
		old := []*domain.Participant{
			paidRow(1, 100, 1, "Анна", 500),
			activeRow(2, 200, 2, "Борис"),
		}
		selection := []domain.ClientRef{
			{ID: 200, Name: "Борис"},
			{ID: 100, Name: "Анна"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 2)
		assert.Empty(t, plan.Inserts)
		assert.Empty(t, plan.SoftDeleteIDs)

		// Борис теперь первый, Анна вторая, но её оплата на месте
		assert.Equal(t, int64(200), plan.Updates[0].ClientID)
		assert.Equal(t, 1, plan.Updates[0].Position)
		assert.True(t, plan.Updates[0].IsRepresentative)

		assert.Equal(t, int64(100), plan.Updates[1].ClientID)
		assert.Equal(t, 2, plan.Updates[1].Position)
		assert.Equal(t, float64(500), plan.Updates[1].PaymentValue)
		assert.Equal(t, domain.PaymentPaid, plan.Updates[1].PaymentStatus)
		assert.False(t, plan.Updates[1].IsRepresentative)
	})

	t.Run("duplicate clients consumed FIFO", func(t *testing.T) {
		old := []*domain.Participant{
			paidRow(1, 100, 1, "Анна", 300),
			activeRow(2, 100, 2, "Анна"),
		}
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
			{ID: 100, Name: "Анна"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 2)
		// Первая позиция потребляет первую (оплаченную) строку
		assert.Equal(t, int64(1), plan.Updates[0].ID)
		assert.Equal(t, float64(300), plan.Updates[0].PaymentValue)
		assert.Equal(t, int64(2), plan.Updates[1].ID)
	})

	t.Run("removed paid client is soft-deleted, never reassigned", func(t *testing.T) {
		old := []*domain.Participant{
			paidRow(1, 100, 1, "Анна", 700),
		}
		selection := []domain.ClientRef{
			{ID: 300, Name: "Вера"},
		}

		plan := BuildPlan(10, old, selection)

		assert.Empty(t, plan.Updates)
		require.Len(t, plan.Inserts, 1)
		assert.Equal(t, int64(300), plan.Inserts[0].ClientID)
		assert.Equal(t, float64(0), plan.Inserts[0].PaymentValue)
		assert.Equal(t, []int64{1}, plan.SoftDeleteIDs)
	})

	t.Run("idempotent on unchanged selection", func(t *testing.T) {
		old := []*domain.Participant{
			paidRow(1, 100, 1, "Анна", 500),
			activeRow(2, 200, 2, "Борис"),
		}
		selection := []domain.ClientRef{
			{ID: 100, Name: "Анна"},
			{ID: 200, Name: "Борис"},
		}

		plan := BuildPlan(10, old, selection)

		require.Len(t, plan.Updates, 2)
		for i, row := range plan.Updates {
			assert.Equal(t, old[i].ClientID, row.ClientID)
			assert.Equal(t, old[i].Position, row.Position)
			assert.Equal(t, old[i].PaymentValue, row.PaymentValue)
			assert.Equal(t, old[i].PaymentStatus, row.PaymentStatus)
			assert.Equal(t, old[i].IsRepresentative, row.IsRepresentative)
		}
		assert.Empty(t, plan.Inserts)
		assert.Empty(t, plan.SoftDeleteIDs)
	})

	t.Run("representative follows position one", func(t *testing.T) {
		old := []*domain.Participant{
			paidRow(1, 100, 1, "Анна", 100),
			paidRow(2, 200, 2, "Борис", 200),
		}
		selection := []domain.ClientRef{
			{ID: 200, Name: "Борис"},
			{ID: 100, Name: "Анна"},
		}

		plan := BuildPlan(10, old, selection)

		representatives := 0
		for _, row := range plan.Updates {
			if row.IsRepresentative {
				representatives++
				assert.Equal(t, 1, row.Position)
			}
		}
		assert.Equal(t, 1, representatives)
	})
}
