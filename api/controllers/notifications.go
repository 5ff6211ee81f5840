package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/api/responses"
	"github.com/opsdeskhq/opsdesk-backend/api/validators"
	"github.com/opsdeskhq/opsdesk-backend/internal/notifications"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
	"github.com/opsdeskhq/opsdesk-backend/pkg/pagination"
)

type notificationsEnvelope struct {
	Items       any    `json:"items"`
	UnreadCount int64  `json:"unread_count"`
	NextCursor  string `json:"next_cursor,omitempty"`
}

// ListNotifications returns the paginated feed with an unread counter.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.List(r.Context(), notifications.ListFilter{
			UnreadOnly: validators.QueryBool(r, "unreadOnly"),
			Cursor:     validators.QueryString(r, "cursor"),
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unread, err := svc.UnreadCount(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, notificationsEnvelope{Items: rows, UnreadCount: unread, NextCursor: next})
	}
}

// MarkNotificationRead marks one entry as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := svc.MarkRead(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllNotificationsRead clears the unread counter.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := svc.MarkAllRead(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
