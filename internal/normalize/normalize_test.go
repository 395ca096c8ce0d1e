package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcwinn/traderhub/internal/domain"
)

func closedTrade(id string) domain.Trade {
	exit := 105.0
	return domain.Trade{
		ID:         id,
		Symbol:     "msft",
		Side:       domain.SideLong,
		Quantity:   10,
		EntryPrice: 100,
		ExitPrice:  &exit,
		EntryDate:  time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC),
		ExitDate:   time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC),
		Pnl:        50,
	}
}

func TestBatch(t *testing.T) {
	in := []domain.Trade{
		closedTrade("t-1"),
		func() domain.Trade {
			tr := closedTrade("")
			tr.Tags = []string{" Momentum", "gap", "momentum"}
			return tr
		}(),
	}

	out, err := Batch(in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Equal(t, "MSFT", out[0].Symbol)
	require.Equal(t, domain.DefaultStrategy, out[0].Strategy)
	require.Equal(t, domain.DefaultBroker, out[0].Broker)

	require.NotEmpty(t, out[1].ID)
	require.Equal(t, []string{"gap", "momentum"}, out[1].Tags)

	// Input slice untouched.
	require.Equal(t, "msft", in[0].Symbol)
	require.Empty(t, in[1].ID)
}

func TestBatch_Idempotent(t *testing.T) {
	once, err := Batch([]domain.Trade{closedTrade("t-1")})
	require.NoError(t, err)

	twice, err := Batch(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestBatch_EntryDefaults(t *testing.T) {
	tr := closedTrade("t-1")
	tr.EntryPrice = 0
	tr.EntryDate = time.Time{}

	out, err := Batch([]domain.Trade{tr})
	require.NoError(t, err)
	require.Equal(t, *tr.ExitPrice, out[0].EntryPrice)
	require.Equal(t, tr.ExitDate, out[0].EntryDate)
}

func TestBatch_AllOrNothing(t *testing.T) {
	bad := closedTrade("t-2")
	bad.Quantity = -5

	out, err := Batch([]domain.Trade{closedTrade("t-1"), bad})
	require.Error(t, err)
	require.Nil(t, out)
	require.Contains(t, err.Error(), "record 1")

	var violation *domain.InvariantViolation
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "quantity", violation.Field)
}

func TestBatch_Empty(t *testing.T) {
	out, err := Batch(nil)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestMerge(t *testing.T) {
	a := closedTrade("a")
	b := closedTrade("b")
	c := closedTrade("c")

	correction := closedTrade("b")
	correction.Pnl = -75

	merged := Merge([]domain.Trade{a, b}, []domain.Trade{correction, c})
	require.Len(t, merged, 3)

	// Correction replaced the stored trade in place; the new one appended.
	require.Equal(t, "a", merged[0].ID)
	require.Equal(t, "b", merged[1].ID)
	require.Equal(t, -75.0, merged[1].Pnl)
	require.Equal(t, "c", merged[2].ID)
}

func TestMerge_Idempotent(t *testing.T) {
	existing := []domain.Trade{closedTrade("a")}
	incoming := []domain.Trade{closedTrade("b"), closedTrade("c")}

	once := Merge(existing, incoming)
	twice := Merge(once, incoming)
	require.Equal(t, once, twice)
}

func TestMerge_DuplicateWithinBatch(t *testing.T) {
	first := closedTrade("x")
	second := closedTrade("x")
	second.Pnl = 99

	merged := Merge(nil, []domain.Trade{first, second})
	require.Len(t, merged, 1)
	require.Equal(t, 99.0, merged[0].Pnl)
}

func TestMerge_NoInputMutation(t *testing.T) {
	existing := []domain.Trade{closedTrade("a")}
	replacement := closedTrade("a")
	replacement.Pnl = 1

	_ = Merge(existing, []domain.Trade{replacement})
	require.Equal(t, 50.0, existing[0].Pnl)
}
