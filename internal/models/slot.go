package models

// Slot is one bookable time on a therapist's available date.
// Date is formatted as 2006-01-02 and Time as 15:04.
type Slot struct {
	ID          int64  `json:"id"`
	DateID      int64  `json:"date_id"`
	TherapistID int64  `json:"therapist_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	IsBooked    bool   `json:"is_booked"`
}
