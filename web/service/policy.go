package service

import (
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
)

// RequireAdmin fails with Forbidden unless caller is an administrator.
func RequireAdmin(caller *model.User) error {
	if caller == nil {
		return common.Unauthorized("error.unauthenticated")
	}
	if !caller.IsAdmin {
		return common.Forbidden("error.adminRequired")
	}
	return nil
}

// RequireOwnerOrAdmin fails with Forbidden unless caller is an administrator or owns the row.
func RequireOwnerOrAdmin(caller *model.User, ownerID int) error {
	if caller == nil {
		return common.Unauthorized("error.unauthenticated")
	}
	if caller.IsAdmin || caller.Id == ownerID {
		return nil
	}
	return common.Forbidden("error.notOwner")
}

// seesEverything reports whether list queries skip owner scoping for caller.
func seesEverything(caller *model.User) bool {
	return caller != nil && caller.IsAdmin
}
