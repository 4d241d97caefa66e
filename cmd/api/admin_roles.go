package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/accesscontrol"
)

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin customer"`
}

// AdminGetUserRoles godoc
//
//	@Summary		List roles of a user
//	@Tags			admin-roles
//	@Produce		json
//	@Param			id	path		int	true	"User ID"
//	@Success		200	{array}		accesscontrol.Role
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/users/{id}/roles [get]
func (app *application) adminGetUserRolesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	roles, err := app.store.AccessControl.GetUserRoles(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, roles)
}

// AdminAssignUserRole godoc
//
//	@Summary		Assign a role to a user
//	@Tags			admin-roles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"User ID"
//	@Param			body	body		roleRequest		true	"Role name"
//	@Success		200		{object}	map[string]string	"Role assigned"
//	@Failure		400		{object}	error				"Bad Request"
//	@Failure		404		{object}	error				"Unknown role"
//	@Failure		500		{object}	error				"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/users/{id}/roles [post]
func (app *application) adminAssignUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var in roleRequest
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Users.GetByID(ctx, userID); err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	if err := app.store.AccessControl.AssignRole(ctx, userID, accesscontrol.RoleName(in.Role)); err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "role assigned",
	})
}

// AdminRemoveUserRole godoc
//
//	@Summary		Remove a role from a user
//	@Tags			admin-roles
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"User ID"
//	@Param			body	body		roleRequest			true	"Role name"
//	@Success		200		{object}	map[string]string	"Role removed"
//	@Failure		400		{object}	error				"Bad Request"
//	@Failure		404		{object}	error				"Role not assigned"
//	@Failure		500		{object}	error				"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/store/admin/users/{id}/roles [delete]
func (app *application) adminRemoveUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID, err := idParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var in roleRequest
	if err := readAndValidate(w, r, &in); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// an admin cannot lock themselves out
	if admin := getUserFromContext(r); admin != nil && admin.ID == userID && in.Role == string(accesscontrol.RoleAdmin) {
		app.badRequestResponse(w, r, fmt.Errorf("cannot remove your own admin role"))
		return
	}

	if err := app.store.AccessControl.RemoveRole(ctx, userID, accesscontrol.RoleName(in.Role)); err != nil {
		app.handleStoreError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"message": "role removed",
	})
}
