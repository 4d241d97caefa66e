package main

import (
	"net/http"

	"storefront/internal/domain/users"
)

type CurrentUserResponse struct {
	*users.User
	Roles               []string `json:"roles"`
	UnreadNotifications int      `json:"unread_notifications"`
}

// getCurrentUserHandler godoc
//
//	@Summary		Get current user
//	@Description	Returns the authenticated user with roles and unread notification count
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	CurrentUserResponse
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	roles, err := app.roleNames(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	unread, err := app.store.Notifications.UnreadCount(r.Context(), &user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, CurrentUserResponse{
		User:                user,
		Roles:               roles,
		UnreadNotifications: unread,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
