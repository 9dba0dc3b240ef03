package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentsadda/studentsadda/internal/model"
	"github.com/studentsadda/studentsadda/internal/repository"
)

func TestRenderBill(t *testing.T) {
	guest := "Walk-in Guest"
	d := &repository.BookingDetail{
		SeatBooking: model.SeatBooking{
			BookingRef:    "4f7c2e",
			GuestName:     &guest,
			BookingDate:   "2026-09-01",
			StartTime:     "10:00",
			EndTime:       "12:00",
			DurationHours: 2,
			BookingPrice:  100,
			Currency:      "INR",
			Status:        model.BookingConfirmed,
		},
		SeatLabel:    "S-01",
		SeatTypeName: "REGULAR",
		LibraryName:  "Quiet Corner",
		LibraryCity:  "Pune",
	}

	var buf bytes.Buffer
	require.NoError(t, RenderBill(d, &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output is not a PDF")
	assert.Greater(t, buf.Len(), 1000)
}
