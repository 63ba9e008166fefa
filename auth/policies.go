package auth

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ReadOnlyIfAuthenticated grants safe methods to authenticated callers and
// denies every write.
func ReadOnlyIfAuthenticated(identity *Identity, method string) bool {
	if identity == nil {
		return false
	}
	return isSafeMethod(method)
}

// ContributorOrReadOnly grants safe methods to any authenticated caller and
// writes to staff or members of contributorsGroup. Denied write attempts are
// logged with the acting username and the target resource.
func ContributorOrReadOnly(identity *Identity, method, resource, contributorsGroup string) bool {
	if isSafeMethod(method) {
		return identity != nil
	}
	if identity == nil {
		return false
	}
	if identity.IsStaff || identity.InGroup(contributorsGroup) {
		return true
	}
	log.Warnf("Unauthorized write attempt by user: %s on resource: %s", identity.Username, resource)
	return false
}

// AllowCatalog combines the two catalog policies with a logical OR.
func AllowCatalog(identity *Identity, method, resource, contributorsGroup string) bool {
	return ReadOnlyIfAuthenticated(identity, method) ||
		ContributorOrReadOnly(identity, method, resource, contributorsGroup)
}
