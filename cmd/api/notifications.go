package main

import (
	"net/http"

	"storefront/internal/domain/notifications"
	"storefront/internal/params"
)

type notificationList struct {
	listResponse[*notifications.Notification]
	Unread int `json:"unread"`
}

func unreadOnly(r *http.Request) (bool, error) {
	b, err := params.OptionalBool(r.URL.Query(), "unread_only")
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}

// listMyNotificationsHandler godoc
//
//	@Summary		My notifications
//	@Description	Order updates for the signed-in customer, newest first
//	@Tags			notifications
//	@Produce		json
//	@Param			unread_only	query		bool	false	"Only unread"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	notificationList
//	@Security		ApiKeyAuth
//	@Router			/store/notifications [get]
func (app *application) listMyNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	only, err := unreadOnly(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())
	user := getUserFromContext(r)

	list, total, err := app.store.Notifications.ListForUser(r.Context(), user.ID, only, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	unread, err := app.store.Notifications.UnreadCount(r.Context(), &user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, notificationList{
		listResponse: listResponse[*notifications.Notification]{Items: list, Pagination: p},
		Unread:       unread,
	})
}

// markMyNotificationReadHandler godoc
//
//	@Summary		Mark notification read
//	@Tags			notifications
//	@Param			id	path	int	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/notifications/{id}/read [patch]
func (app *application) markMyNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	user := getUserFromContext(r)

	if err := app.store.Notifications.MarkRead(r.Context(), id, &user.ID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adminListNotificationsHandler godoc
//
//	@Summary		Back-office notifications
//	@Description	Low and out of stock alerts, newest first
//	@Tags			admin-notifications
//	@Produce		json
//	@Param			unread_only	query		bool	false	"Only unread"
//	@Param			page		query		int		false	"Page"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	notificationList
//	@Security		ApiKeyAuth
//	@Router			/store/admin/notifications [get]
func (app *application) adminListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	only, err := unreadOnly(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	list, total, err := app.store.Notifications.ListForAdmin(r.Context(), only, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	unread, err := app.store.Notifications.UnreadCount(r.Context(), nil)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	p.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, notificationList{
		listResponse: listResponse[*notifications.Notification]{Items: list, Pagination: p},
		Unread:       unread,
	})
}

// adminMarkNotificationReadHandler godoc
//
//	@Summary		Mark back-office notification read
//	@Tags			admin-notifications
//	@Param			id	path	int	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/store/admin/notifications/{id}/read [patch]
func (app *application) adminMarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.Notifications.MarkRead(r.Context(), id, nil); err != nil {
		app.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adminMarkAllNotificationsReadHandler godoc
//
//	@Summary		Mark every back-office notification read
//	@Tags			admin-notifications
//	@Produce		json
//	@Success		200	{object}	map[string]int64
//	@Security		ApiKeyAuth
//	@Router			/store/admin/notifications/read-all [post]
func (app *application) adminMarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	n, err := app.store.Notifications.MarkAllRead(r.Context(), nil)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, map[string]int64{"marked": n})
}
