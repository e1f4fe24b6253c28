package services

import (
	"fmt"
	"time"

	"github.com/jo-service/marketplace-backend/internal/models"
)

type transition struct {
	role models.ParticipantType
	from models.BookingStatus
	to   models.BookingStatus
}

// transitions is the full set of legal (role, from, to) status changes.
var transitions = map[transition]bool{
	{models.ParticipantProvider, models.BookingPending, models.BookingAccepted}:           true,
	{models.ParticipantProvider, models.BookingPending, models.BookingDeclinedByProvider}: true,
	{models.ParticipantProvider, models.BookingAccepted, models.BookingInProgress}:        true,
	{models.ParticipantProvider, models.BookingInProgress, models.BookingCompleted}:       true,
	{models.ParticipantUser, models.BookingPending, models.BookingCancelledByUser}:        true,
	{models.ParticipantUser, models.BookingAccepted, models.BookingCancelledByUser}:       true,
}

// CanTransition reports whether role may move a booking from one status to another.
func CanTransition(role models.ParticipantType, from, to models.BookingStatus) bool {
	return transitions[transition{role, from, to}]
}

// IsTerminal reports whether no role can move a booking out of status.
// The reserved payment statuses are not terminal.
func IsTerminal(status models.BookingStatus) bool {
	switch status {
	case models.BookingDeclinedByProvider, models.BookingCancelledByUser, models.BookingCompleted:
		return true
	}
	return false
}

// AllowedTransitions lists the statuses role may move a booking to from status.
func AllowedTransitions(role models.ParticipantType, from models.BookingStatus) []models.BookingStatus {
	allowed := []models.BookingStatus{}
	for _, to := range models.BookingStatuses {
		if CanTransition(role, from, to) {
			allowed = append(allowed, to)
		}
	}
	return allowed
}

// statusNotification builds the single notification a booking in its
// current status produces, and the party it is addressed to.
func statusNotification(b *models.Booking) (models.ParticipantType, NotificationPayload, bool) {
	userName, providerName, serviceType := "User", "Provider", "service"
	if b.User != nil && b.User.FullName != "" {
		userName = b.User.FullName
	}
	if b.Provider != nil {
		if b.Provider.FullName != "" {
			providerName = b.Provider.FullName
		}
		if b.Provider.ServiceType != "" {
			serviceType = b.Provider.ServiceType
		}
	}
	when := b.ServiceDateTime.Format("Jan 2, 2006 3:04 PM")

	payload := NotificationPayload{
		BookingID: b.ID,
		Data: map[string]string{
			"bookingId":       b.ID,
			"serviceType":     serviceType,
			"serviceDateTime": b.ServiceDateTime.UTC().Format(time.RFC3339),
		},
	}

	switch b.Status {
	case models.BookingPending:
		payload.Type = models.NotificationBookingCreated
		payload.Title = "New Booking Request"
		payload.Body = fmt.Sprintf("%s has requested your %s services on %s.", userName, serviceType, when)
		return models.ParticipantProvider, payload, true
	case models.BookingAccepted:
		payload.Type = models.NotificationBookingAccepted
		payload.Title = "Booking Accepted"
		payload.Body = fmt.Sprintf("%s has accepted your booking for %s on %s.", providerName, serviceType, when)
		return models.ParticipantUser, payload, true
	case models.BookingDeclinedByProvider:
		payload.Type = models.NotificationBookingDeclined
		payload.Title = "Booking Declined"
		payload.Body = fmt.Sprintf("%s has declined your booking for %s on %s.", providerName, serviceType, when)
		return models.ParticipantUser, payload, true
	case models.BookingCancelledByUser:
		payload.Type = models.NotificationBookingCancelled
		payload.Title = "Booking Cancelled"
		payload.Body = fmt.Sprintf("%s has cancelled their booking for your %s on %s.", userName, serviceType, when)
		return models.ParticipantProvider, payload, true
	case models.BookingInProgress:
		payload.Type = models.NotificationBookingStarted
		payload.Title = "Service Started"
		payload.Body = fmt.Sprintf("%s has started their %s service for your booking.", providerName, serviceType)
		return models.ParticipantUser, payload, true
	case models.BookingCompleted:
		payload.Type = models.NotificationBookingCompleted
		payload.Title = "Service Completed"
		payload.Body = fmt.Sprintf("%s has completed their %s service. Please rate your experience!", providerName, serviceType)
		return models.ParticipantUser, payload, true
	}
	return "", payload, false
}
