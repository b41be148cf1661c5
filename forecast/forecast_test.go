package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

func rec(date, price string) models.RoomPriceRecord {
	return models.RoomPriceRecord{HotelName: "Hotel Ticuan", CheckinDate: date, RoomType: "King", Price: price}
}

func TestDailyAverages(t *testing.T) {
	obs := DailyAverages([]models.RoomPriceRecord{
		rec("2024-01-02", "MXN 1,000"),
		rec("2024-01-02", "MXN 2,000"),
		rec("2024-01-01", "MXN 900"),
		rec("2024-01-03", "sold out"),
	})
	require.Len(t, obs, 2)
	require.Equal(t, "2024-01-01", obs[0].Date.Format(models.DateLayout))
	require.Equal(t, 900.0, obs[0].Price)
	require.Equal(t, 1500.0, obs[1].Price)
}

func TestHolt(t *testing.T) {
	level, trend := Holt([]float64{10, 12, 14, 16}, Alpha, Beta)
	require.InDelta(t, 16, level, 1e-9)
	require.InDelta(t, 2, trend, 1e-9)

	level, trend = Holt(nil, Alpha, Beta)
	require.Zero(t, level)
	require.Zero(t, trend)
}

func TestEndOfNextMonth(t *testing.T) {
	require.Equal(t, "2024-02-29", EndOfNextMonth(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)).Format(models.DateLayout))
	require.Equal(t, "2025-01-31", EndOfNextMonth(time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)).Format(models.DateLayout))
}

func TestBuild(t *testing.T) {
	today := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	records := []models.RoomPriceRecord{
		rec("2024-01-01", "$100"),
		rec("2024-01-03", "$120"),
		rec("2024-01-04", "$130"),
	}

	s, err := Build("Hotel Ticuan", records, today)
	require.NoError(t, err)
	require.Equal(t, 3, s.Nights)
	require.InDelta(t, 116.67, s.Average, 1e-9)

	// Jan 1 through Feb 29.
	require.Len(t, s.Points, 60)
	require.Equal(t, Point{Date: "2024-01-01", Price: 100, Kind: KindReal}, s.Points[0])
	require.Equal(t, Point{Date: "2024-01-02", Price: 110, Kind: KindPredicted}, s.Points[1])
	require.Equal(t, KindReal, s.Points[2].Kind)
	require.Equal(t, "2024-02-29", s.Points[59].Date)

	for i := 1; i < len(s.Points); i++ {
		require.Less(t, s.Points[i-1].Date, s.Points[i].Date)
	}
	require.Greater(t, s.Points[10].Price, 130.0, "upward trend continues")
}

func TestBuildNeverNegative(t *testing.T) {
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, err := Build("h", []models.RoomPriceRecord{rec("2024-01-01", "$500"), rec("2024-01-02", "$100")}, today)
	require.NoError(t, err)
	for _, p := range s.Points {
		require.GreaterOrEqual(t, p.Price, 0.0)
	}
	require.Zero(t, s.Points[len(s.Points)-1].Price)
}

func TestBuildNeedsTwoDays(t *testing.T) {
	_, err := Build("h", []models.RoomPriceRecord{rec("2024-01-01", "$1")}, time.Now())
	require.ErrorIs(t, err, ErrNotEnoughData)
}
