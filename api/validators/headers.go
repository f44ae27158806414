package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
)

const (
	versionHeader = "X-Planner-Version"
	intentHeader  = "X-Delete-Intent"
)

// DeclaredVersion reads the optimistic-concurrency token the client last saw.
// A missing header means the caller opts out of the version check.
func DeclaredVersion(r *http.Request) (*int64, error) {
	raw := strings.TrimSpace(r.Header.Get(versionHeader))
	if raw == "" {
		return nil, nil
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid planner version header").WithDetails(map[string]any{"header": versionHeader})
	}
	return &version, nil
}

// DeleteIntent reports whether the caller explicitly confirmed a delete.
func DeleteIntent(r *http.Request) bool {
	raw := strings.TrimSpace(r.Header.Get(intentHeader))
	confirmed, err := strconv.ParseBool(raw)
	return err == nil && confirmed
}
