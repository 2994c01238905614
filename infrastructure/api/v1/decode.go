package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Acurioustractor/palm-island-repository/infrastructure/api/middleware"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst. An empty body is allowed only when
// optional is set.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any, optional bool) error {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && optional:
		return nil
	default:
		return middleware.NewAPIError(http.StatusBadRequest, "invalid JSON body", err)
	}
}
